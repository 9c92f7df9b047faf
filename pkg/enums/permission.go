package enums

import "fmt"

// Permission names a capability a user must carry to invoke an operation.
// PermissionAdmin satisfies every permission check.
type Permission string

const (
	PermissionOutbound           Permission = "saida"
	PermissionInbound            Permission = "entrada"
	PermissionRegistry           Permission = "cadastro"
	PermissionRequestMaintenance Permission = "solicitar_manutencao"
	PermissionManageMaintenance  Permission = "gerenciar_manutencao"
	PermissionAdmin              Permission = "admin"
)

var validPermissions = []Permission{
	PermissionOutbound,
	PermissionInbound,
	PermissionRegistry,
	PermissionRequestMaintenance,
	PermissionManageMaintenance,
	PermissionAdmin,
}

// String implements fmt.Stringer.
func (p Permission) String() string {
	return string(p)
}

// IsValid reports whether the value is a known Permission.
func (p Permission) IsValid() bool {
	for _, candidate := range validPermissions {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePermission converts raw input into a Permission.
func ParsePermission(value string) (Permission, error) {
	for _, candidate := range validPermissions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid permission %q", value)
}

// Satisfies reports whether a grant covers the required permission.
func Satisfies(granted []string, required Permission) bool {
	for _, g := range granted {
		if g == string(PermissionAdmin) || g == string(required) {
			return true
		}
	}
	return false
}
