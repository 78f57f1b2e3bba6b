package admin

import "github.com/google/uuid"

// Role is a sales-force designation issued by the identity provider
type Role string

const (
	RolePresident            Role = "president"
	RoleSeniorGeneralManager Role = "senior-general-manager"
	RoleGeneralManager       Role = "general-manager"
	RoleRegionalSalesManager Role = "regional-sales-manager"
	RoleAreaSalesManager     Role = "area-sales-manager"
	RoleSeniorManager        Role = "senior-manager"
	RoleManager              Role = "manager"
	RoleAssistantManager     Role = "assistant-manager"
	RoleSeniorExecutive      Role = "senior-executive"
	RoleExecutive            Role = "executive"
	RoleJuniorExecutive      Role = "junior-executive"
)

// Identity is the verified caller of an admin route
type Identity struct {
	AdminID uuid.UUID `json:"admin_id"`
	Email   string    `json:"email,omitempty"`
	Role    Role      `json:"role"`
}
