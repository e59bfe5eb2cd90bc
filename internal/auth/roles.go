package auth

// Role is the access level carried by a user record and its session claims.
// Levels form a strict chain: user < admin < master.
type Role string

const (
	RoleUser   Role = "user"
	RoleAdmin  Role = "admin"
	RoleMaster Role = "master"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin || r == RoleMaster
}

func (r Role) Level() int {
	switch r {
	case RoleUser:
		return 0
	case RoleAdmin:
		return 1
	case RoleMaster:
		return 2
	default:
		return -1
	}
}

// AtLeast is the single place role ordering is decided; endpoint gates and
// services call it instead of comparing role strings.
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && r.Level() >= min.Level()
}
