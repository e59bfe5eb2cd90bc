package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"workdesk/internal/account"
	"workdesk/internal/auth"
	"workdesk/internal/blog"
	"workdesk/internal/config"
	"workdesk/internal/db"
	workhttp "workdesk/internal/http"
	"workdesk/internal/sequence"
	"workdesk/internal/task"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const masterEmail = "boss@example.com"

type testEnv struct {
	handler http.Handler
	auth    *auth.Service
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrateAndIndexes(gdb))

	sealer, err := account.NewSealer("router-test-secret")
	require.NoError(t, err)
	seq := &sequence.Allocator{DB: gdb}

	authSvc := &auth.Service{DB: gdb, MasterEmail: masterEmail}
	svc := workhttp.Services{
		Auth:    authSvc,
		JWT:     auth.NewJWT("router-test-jwt"),
		Task:    &task.Service{DB: gdb, Seq: seq},
		Account: &account.Service{DB: gdb, Sealer: sealer},
		Blog:    &blog.Service{DB: gdb, Seq: seq},
	}
	return &testEnv{handler: workhttp.NewRouter(config.Config{}, svc), auth: authSvc}
}

// do runs one request through the router and decodes the JSON reply.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec.Code, payload
}

// signup registers, approves and logs in a user, returning their token.
func (e *testEnv) signup(t *testing.T, email, name string, role auth.Role) string {
	t.Helper()
	ctx := context.Background()

	u, err := e.auth.Register(ctx, email, "secret1", name)
	require.NoError(t, err)

	if email == masterEmail {
		_, err = e.auth.PromoteMaster(ctx)
		require.NoError(t, err)
	} else {
		approved := true
		upd := auth.UserUpdate{IsApproved: &approved}
		if role != auth.RoleUser {
			upd.Role = &role
		}
		_, err = e.auth.UpdateUser(ctx, u.ID, upd)
		require.NoError(t, err)
	}

	code, payload := e.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, code)
	token, _ := payload["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealth(t *testing.T) {
	env := newEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRegisterLoginApprovalFlow(t *testing.T) {
	env := newEnv(t)

	code, payload := env.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "new@example.com", "password": "secret1", "name": "Newbie",
	})
	require.Equal(t, http.StatusCreated, code)
	user := payload["user"].(map[string]any)
	assert.Equal(t, false, user["isApproved"])
	assert.NotContains(t, user, "passwordHash", "hashes never leave the server")

	// pending accounts cannot log in
	code, payload = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "new@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "awaiting administrator approval", payload["error"])

	// unknown accounts and bad passwords fail differently
	code, payload = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ghost@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "account does not exist", payload["error"])

	code, payload = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "new@example.com", "password": "wrong-1",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "password does not match", payload["error"])

	code, _ = env.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "new@example.com", "password": "secret1", "name": "Dup",
	})
	assert.Equal(t, http.StatusConflict, code)

	token := env.signup(t, "ok@example.com", "Okay", auth.RoleUser)
	code, payload = env.do(t, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok@example.com", payload["email"])
	assert.Equal(t, true, payload["isApproved"])
}

func TestSetupMasterBootstrap(t *testing.T) {
	env := newEnv(t)

	code, _ := env.do(t, http.MethodPost, "/auth/setup-master", "", nil)
	assert.Equal(t, http.StatusNotFound, code, "designated account not registered yet")

	_, err := env.auth.Register(context.Background(), masterEmail, "secret1", "Boss")
	require.NoError(t, err)

	code, payload := env.do(t, http.MethodPost, "/auth/setup-master", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, string(auth.RoleMaster), payload["user"].(map[string]any)["role"])

	// idempotent
	code, _ = env.do(t, http.MethodPost, "/auth/setup-master", "", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestAuthRequiredEverywhere(t *testing.T) {
	env := newEnv(t)

	for _, path := range []string{"/me", "/tasks", "/accounts", "/blog-posts", "/users"} {
		code, _ := env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, code, path)
	}

	code, _ := env.do(t, http.MethodGet, "/tasks", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestTaskRoutePermissions(t *testing.T) {
	env := newEnv(t)
	userTok := env.signup(t, "worker@example.com", "Worker", auth.RoleUser)
	adminTok := env.signup(t, "lead@example.com", "Lead", auth.RoleAdmin)

	code, payload := env.do(t, http.MethodPost, "/tasks", userTok, map[string]any{
		"title": "Ship landing page", "category": "feature",
	})
	require.Equal(t, http.StatusCreated, code)
	created := payload["task"].(map[string]any)
	taskID := fmt.Sprintf("%.0f", created["id"].(float64))
	assert.Equal(t, float64(1), created["number"])

	// plain users cannot delete, and the record stays intact
	code, _ = env.do(t, http.MethodDelete, "/tasks/"+taskID, userTok, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = env.do(t, http.MethodGet, "/tasks/"+taskID, userTok, nil)
	assert.Equal(t, http.StatusOK, code)

	// anyone signed in may comment
	code, payload = env.do(t, http.MethodPost, "/tasks/"+taskID+"/comments", userTok, map[string]string{
		"content": "on it",
	})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, float64(1), payload["comment"].(map[string]any)["number"])

	// history creation is an admin action
	code, _ = env.do(t, http.MethodPost, "/tasks/"+taskID+"/history", userTok, map[string]string{"title": "h"})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = env.do(t, http.MethodPost, "/tasks/"+taskID+"/history", adminTok, map[string]string{"title": "h"})
	assert.Equal(t, http.StatusCreated, code)

	code, _ = env.do(t, http.MethodPost, "/tasks/migrate-numbers", userTok, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = env.do(t, http.MethodDelete, "/tasks/"+taskID, adminTok, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = env.do(t, http.MethodGet, "/tasks/"+taskID, userTok, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAccountRoutePermissions(t *testing.T) {
	env := newEnv(t)
	userTok := env.signup(t, "worker@example.com", "Worker", auth.RoleUser)
	adminTok := env.signup(t, "lead@example.com", "Lead", auth.RoleAdmin)

	code, _ := env.do(t, http.MethodGet, "/accounts", userTok, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, payload := env.do(t, http.MethodPost, "/accounts", adminTok, map[string]string{
		"platform": "instagram", "accountName": "brand", "username": "brand", "password": "hunter2",
	})
	require.Equal(t, http.StatusCreated, code)
	id := fmt.Sprintf("%.0f", payload["account"].(map[string]any)["id"].(float64))

	// touch is open to every signed-in user, it backs the copy button
	code, payload = env.do(t, http.MethodPatch, "/accounts/"+id, userTok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotNil(t, payload["account"].(map[string]any)["lastUsedAt"])

	code, _ = env.do(t, http.MethodDelete, "/accounts/"+id, userTok, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = env.do(t, http.MethodDelete, "/accounts/"+id, adminTok, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestBlogRoutes(t *testing.T) {
	env := newEnv(t)
	aliceTok := env.signup(t, "alice@example.com", "Alice", auth.RoleUser)
	bobTok := env.signup(t, "bob@example.com", "Bob", auth.RoleUser)

	code, payload := env.do(t, http.MethodPost, "/blog-posts", aliceTok, map[string]any{
		"title": "March review", "url": "https://blog.example.com/1", "keyword": "review", "ranking": 5,
	})
	require.Equal(t, http.StatusCreated, code)
	post := payload["post"].(map[string]any)
	assert.Equal(t, float64(1), post["serialNumber"])
	rankings := post["rankings"].([]any)
	require.Len(t, rankings, 1)
	assert.Equal(t, float64(5), rankings[0].(map[string]any)["rank"])
	id := fmt.Sprintf("%.0f", post["id"].(float64))

	// only the author or an admin may delete
	code, _ = env.do(t, http.MethodDelete, "/blog-posts/"+id, bobTok, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = env.do(t, http.MethodDelete, "/blog-posts/"+id, aliceTok, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestUserAdminIsMasterOnly(t *testing.T) {
	env := newEnv(t)
	masterTok := env.signup(t, masterEmail, "Boss", auth.RoleMaster)
	adminTok := env.signup(t, "lead@example.com", "Lead", auth.RoleAdmin)
	env.signup(t, "worker@example.com", "Worker", auth.RoleUser)

	// admin is not enough for user administration
	code, _ := env.do(t, http.MethodGet, "/users", adminTok, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, payload := env.do(t, http.MethodGet, "/users", masterTok, nil)
	require.Equal(t, http.StatusOK, code)
	users := payload["users"].([]any)
	require.Len(t, users, 3)

	var workerID float64
	for _, raw := range users {
		u := raw.(map[string]any)
		if u["email"] == "worker@example.com" {
			workerID = u["id"].(float64)
		}
	}
	require.NotZero(t, workerID)

	code, payload = env.do(t, http.MethodPatch, "/users", masterTok, map[string]any{
		"userId": workerID, "role": "admin",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "admin", payload["user"].(map[string]any)["role"])

	// nobody may promote to master except the designated email
	code, _ = env.do(t, http.MethodPatch, "/users", masterTok, map[string]any{
		"userId": workerID, "role": "master",
	})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = env.do(t, http.MethodDelete, "/users", masterTok, map[string]any{"userId": workerID})
	assert.Equal(t, http.StatusOK, code)
	code, _ = env.do(t, http.MethodDelete, "/users", masterTok, map[string]any{"userId": workerID})
	assert.Equal(t, http.StatusNotFound, code)
}

// Approval is snapshotted into the token at login; revoking it does not
// invalidate sessions already issued. They simply age out.
func TestRevokedApprovalKeepsOldSessions(t *testing.T) {
	env := newEnv(t)
	tok := env.signup(t, "worker@example.com", "Worker", auth.RoleUser)

	var u auth.User
	require.NoError(t, env.auth.DB.Where("email = ?", "worker@example.com").First(&u).Error)
	revoked := false
	_, err := env.auth.UpdateUser(context.Background(), u.ID, auth.UserUpdate{IsApproved: &revoked})
	require.NoError(t, err)

	// fresh logins are blocked again
	code, _ := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "worker@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusForbidden, code)

	// but the old token still works
	code, payload := env.do(t, http.MethodGet, "/me", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, payload["isApproved"])
}
