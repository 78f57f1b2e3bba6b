package admin

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Permission represents an admin capability
type Permission string

const (
	PermViewRedemptions       Permission = "redemptions.view"
	PermCreateRedemptions     Permission = "redemptions.create"
	PermTransitionRedemptions Permission = "redemptions.transition"

	PermViewLedger      Permission = "ledger.view"
	PermWriteLedger     Permission = "ledger.write"
	PermReconcileLedger Permission = "ledger.reconcile"

	PermViewCatalog   Permission = "catalog.view"
	PermManageCatalog Permission = "catalog.manage"
)

var allPermissions = []Permission{
	PermViewRedemptions, PermCreateRedemptions, PermTransitionRedemptions,
	PermViewLedger, PermWriteLedger, PermReconcileLedger,
	PermViewCatalog, PermManageCatalog,
}

//go:embed roles.yaml
var defaultPolicy []byte

// Policy is the role hierarchy plus the minimum role of every permission.
type Policy struct {
	Roles       map[Role]int        `yaml:"roles"`
	Permissions map[Permission]Role `yaml:"permissions"`
}

// DefaultPolicy returns the embedded role hierarchy.
func DefaultPolicy() *Policy {
	p, err := ParsePolicy(defaultPolicy)
	if err != nil {
		panic(fmt.Sprintf("admin: embedded role policy: %v", err))
	}
	return p
}

// LoadPolicy reads the policy at path, or the embedded one when path is empty.
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("admin: read role policy: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes and validates a YAML role policy.
func ParsePolicy(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	if len(p.Roles) == 0 {
		return nil, fmt.Errorf("%w: no roles defined", ErrInvalidPolicy)
	}
	for _, perm := range allPermissions {
		min, ok := p.Permissions[perm]
		if !ok {
			return nil, fmt.Errorf("%w: permission %q has no minimum role", ErrInvalidPolicy, perm)
		}
		if _, ok := p.Roles[min]; !ok {
			return nil, fmt.Errorf("%w: permission %q names unknown role %q", ErrInvalidPolicy, perm, min)
		}
	}
	return &p, nil
}

// Level returns the rank of role and whether it is known.
func (p *Policy) Level(role Role) (int, bool) {
	lvl, ok := p.Roles[role]
	return lvl, ok
}

// Allows reports whether role may use perm. Unknown roles and
// permissions are denied.
func (p *Policy) Allows(role Role, perm Permission) bool {
	have, ok := p.Roles[role]
	if !ok {
		return false
	}
	min, ok := p.Permissions[perm]
	if !ok {
		return false
	}
	return have >= p.Roles[min]
}

