package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionTTL is the token lifetime. Claims are trusted for the whole
// lifetime without a store round-trip, so approval is a point-in-time
// snapshot taken at issuance.
const SessionTTL = 30 * 24 * time.Hour

// Identity is the session claim set: who the caller is and what they were
// allowed to do when the token was signed.
type Identity struct {
	UserID   uint64
	Email    string
	Name     string
	Role     Role
	Approved bool
}

type JWT struct {
	secret []byte
}

func NewJWT(secret string) *JWT {
	return &JWT{secret: []byte(secret)}
}

func (j *JWT) Sign(id Identity) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      id.UserID,
		"email":    id.Email,
		"name":     id.Name,
		"role":     string(id.Role),
		"approved": id.Approved,
		"iat":      now.Unix(),
		"exp":      now.Add(SessionTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(j.secret)
}

func (j *JWT) Verify(tokenStr string) (Identity, error) {
	t, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return j.secret, nil
	})
	if err != nil || !t.Valid {
		return Identity{}, errors.New("invalid token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, errors.New("invalid claims")
	}

	// jwt MapClaims numbers are float64
	sub, ok := claims["sub"].(float64)
	if !ok {
		return Identity{}, errors.New("invalid sub")
	}
	role, ok := claims["role"].(string)
	if !ok || !Role(role).Valid() {
		return Identity{}, errors.New("invalid role claim")
	}
	approved, _ := claims["approved"].(bool)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)

	return Identity{
		UserID:   uint64(sub),
		Email:    email,
		Name:     name,
		Role:     Role(role),
		Approved: approved,
	}, nil
}
