package admin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicyHierarchy(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		role Role
		perm Permission
		want bool
	}{
		{RoleJuniorExecutive, PermViewRedemptions, true},
		{RoleJuniorExecutive, PermCreateRedemptions, false},
		{RoleExecutive, PermCreateRedemptions, true},
		{RoleSeniorManager, PermTransitionRedemptions, false},
		{RoleAreaSalesManager, PermTransitionRedemptions, true},
		{RolePresident, PermTransitionRedemptions, true},
		{RoleAssistantManager, PermWriteLedger, false},
		{RoleManager, PermWriteLedger, true},
		{RoleRegionalSalesManager, PermReconcileLedger, false},
		{RoleGeneralManager, PermReconcileLedger, true},
		{RoleAreaSalesManager, PermManageCatalog, false},
		{RoleRegionalSalesManager, PermManageCatalog, true},
		{Role("intern"), PermViewCatalog, false},
		{RolePresident, Permission("payroll.run"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.perm), func(t *testing.T) {
			assert.Equal(t, tt.want, p.Allows(tt.role, tt.perm))
		})
	}
}

func TestParsePolicyRejectsIncomplete(t *testing.T) {
	_, err := ParsePolicy([]byte("roles:\n  president: 100\npermissions:\n  redemptions.view: president\n"))
	assert.ErrorIs(t, err, ErrInvalidPolicy)

	_, err = ParsePolicy([]byte("roles: {}\n"))
	assert.ErrorIs(t, err, ErrInvalidPolicy)

	_, err = ParsePolicy([]byte("roles: [oops"))
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestLoadPolicyFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.yaml")
	require.NoError(t, os.WriteFile(path, defaultPolicy, 0o600))

	p, err := LoadPolicy(path)
	require.NoError(t, err)
	lvl, ok := p.Level(RoleManager)
	assert.True(t, ok)
	assert.Equal(t, 50, lvl)

	_, err = LoadPolicy(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
