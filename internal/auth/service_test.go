package auth_test

import (
	"context"
	"testing"

	"workdesk/internal/auth"
	"workdesk/internal/db"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const masterEmail = "ops@example.com"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrateAndIndexes(gdb))
	return gdb
}

func newService(t *testing.T) *auth.Service {
	t.Helper()
	return &auth.Service{DB: newTestDB(t), MasterEmail: masterEmail}
}

func TestRegisterStartsPending(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "A@X.com", "abcdef", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", u.Email, "email is normalized to lowercase")
	assert.Equal(t, auth.RoleUser, u.Role)
	assert.False(t, u.IsApproved)
	assert.NotEqual(t, "abcdef", u.PasswordHash)
}

func TestRegisterValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "not-an-email", "abcdef", "Alice")
	assert.ErrorIs(t, err, auth.ErrInvalidInput)

	_, err = svc.Register(ctx, "a@x.com", "short", "Alice")
	assert.ErrorIs(t, err, auth.ErrInvalidInput)

	_, err = svc.Register(ctx, "a@x.com", "abcdef", "  ")
	assert.ErrorIs(t, err, auth.ErrInvalidInput)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "a@x.com", "abcdef", "Alice")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "A@x.COM", "ghijkl", "Imposter")
	assert.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestApprovalGateScenario(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "a@x.com", "abcdef", "Alice")
	require.NoError(t, err)
	assert.False(t, u.IsApproved)

	// login before approval
	_, err = svc.Authenticate(ctx, "a@x.com", "abcdef")
	assert.ErrorIs(t, err, auth.ErrPendingApproval)

	// master approves
	approved := true
	_, err = svc.UpdateUser(ctx, u.ID, auth.UserUpdate{IsApproved: &approved})
	require.NoError(t, err)

	got, err := svc.Authenticate(ctx, "a@x.com", "abcdef")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleUser, got.Role)
	assert.True(t, got.IsApproved)
}

func TestAuthenticateFailureKindsAreDistinct(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "a@x.com", "abcdef", "Alice")
	require.NoError(t, err)
	approved := true
	_, err = svc.UpdateUser(ctx, u.ID, auth.UserUpdate{IsApproved: &approved})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "ghost@x.com", "abcdef")
	assert.ErrorIs(t, err, auth.ErrUnknownAccount)

	_, err = svc.Authenticate(ctx, "a@x.com", "wrongpw")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "a@x.com", "")
	assert.ErrorIs(t, err, auth.ErrInvalidInput)
}

func TestPromoteMaster(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.PromoteMaster(ctx)
	assert.ErrorIs(t, err, auth.ErrUnknownAccount, "bootstrap needs the account registered first")

	_, err = svc.Register(ctx, masterEmail, "abcdef", "Boss")
	require.NoError(t, err)

	u, err := svc.PromoteMaster(ctx)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleMaster, u.Role)
	assert.True(t, u.IsApproved)

	// idempotent
	again, err := svc.PromoteMaster(ctx)
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, auth.RoleMaster, again.Role)
}

func TestMasterExclusivity(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "a@x.com", "abcdef", "Alice")
	require.NoError(t, err)

	master := auth.RoleMaster
	_, err = svc.UpdateUser(ctx, u.ID, auth.UserUpdate{Role: &master})
	assert.ErrorIs(t, err, auth.ErrMasterOnlyEmail)

	// role unchanged after the rejection
	reloaded, err := svc.UpdateUser(ctx, u.ID, auth.UserUpdate{})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleUser, reloaded.Role)
}

func TestMasterCannotBeDemotedOrDeleted(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, masterEmail, "abcdef", "Boss")
	require.NoError(t, err)
	m, err := svc.PromoteMaster(ctx)
	require.NoError(t, err)

	user := auth.RoleUser
	_, err = svc.UpdateUser(ctx, m.ID, auth.UserUpdate{Role: &user})
	assert.ErrorIs(t, err, auth.ErrMasterImmutable)

	err = svc.DeleteUser(ctx, m.ID)
	assert.ErrorIs(t, err, auth.ErrMasterImmutable)
}

func TestUpdateUserPromotesToAdmin(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "a@x.com", "abcdef", "Alice")
	require.NoError(t, err)

	admin := auth.RoleAdmin
	approved := true
	got, err := svc.UpdateUser(ctx, u.ID, auth.UserUpdate{Role: &admin, IsApproved: &approved})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, got.Role)
	assert.True(t, got.IsApproved)
}

func TestDeleteUser(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "a@x.com", "abcdef", "Alice")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, u.ID))
	assert.ErrorIs(t, svc.DeleteUser(ctx, u.ID), auth.ErrUserNotFound)
}
