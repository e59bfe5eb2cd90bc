package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleChain(t *testing.T) {
	assert.True(t, RoleUser.AtLeast(RoleUser))
	assert.False(t, RoleUser.AtLeast(RoleAdmin))
	assert.False(t, RoleUser.AtLeast(RoleMaster))

	assert.True(t, RoleAdmin.AtLeast(RoleUser))
	assert.True(t, RoleAdmin.AtLeast(RoleAdmin))
	assert.False(t, RoleAdmin.AtLeast(RoleMaster))

	assert.True(t, RoleMaster.AtLeast(RoleUser))
	assert.True(t, RoleMaster.AtLeast(RoleAdmin))
	assert.True(t, RoleMaster.AtLeast(RoleMaster))
}

func TestUnknownRoleNeverPasses(t *testing.T) {
	assert.False(t, Role("superuser").Valid())
	assert.False(t, Role("superuser").AtLeast(RoleUser))
	assert.False(t, Role("").AtLeast(RoleUser))
}
