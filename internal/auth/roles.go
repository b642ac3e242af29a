package auth

// Role grades what a caller may do with alerts: viewers read, operators
// additionally resolve/dismiss and trigger evaluation, admins cover both.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

var roleRanks = map[Role]int{
	RoleViewer:   1,
	RoleOperator: 2,
	RoleAdmin:    3,
}

// NormalizeRole maps a raw claim value to a known role. Unknown values are
// rejected rather than defaulted.
func NormalizeRole(value string) (Role, bool) {
	role := Role(value)
	_, ok := roleRanks[role]
	if !ok {
		return "", false
	}
	return role, true
}

// RoleAtLeast reports whether role grants at least the required level.
func RoleAtLeast(role, required Role) bool {
	return roleRanks[role] >= roleRanks[required]
}
