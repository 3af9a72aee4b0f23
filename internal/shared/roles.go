package shared

// Role names the operator workflows the console exposes.
type Role string

const (
	// RolePoster lists tested items for sale.
	RolePoster Role = "poster"
	// RoleTester grades and comments on intake items.
	RoleTester Role = "tester"
	// RoleManager administers categories, purchase orders and pricing.
	RoleManager Role = "manager"
)

// ValidRole reports whether the role is one of the known workflows.
func ValidRole(r Role) bool {
	switch r {
	case RolePoster, RoleTester, RoleManager:
		return true
	}
	return false
}
