package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole("admin")
	assert.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("root")
	assert.Error(t, err)
}

func TestRoleCan(t *testing.T) {
	assert.True(t, RoleAdmin.Can(CapManageCatalog))
	assert.True(t, RoleAdmin.Can(CapManageUsers))
	assert.False(t, RoleUser.Can(CapManageCatalog))
	assert.False(t, Role("").Can(CapManageUsers))

	var a Authorizer = RoleAdmin
	assert.True(t, a.Can(CapManageUsers))
}
