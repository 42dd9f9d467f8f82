// Package permission holds the static role to permission table that gates
// which mutating actions the dashboard offers. It is not a security boundary;
// the backend enforces access.
package permission

import "github.com/okian/skillmatrix/internal/domain/model"

// Permission names an action class.
type Permission string

// Known permissions.
const (
	Read           Permission = "read"
	Write          Permission = "write"
	WriteOwn       Permission = "write_own"
	Delete         Permission = "delete"
	ManageUsers    Permission = "manage_users"
	ManageSettings Permission = "manage_settings"
	ManageTeam     Permission = "manage_team"
)

var table = map[model.Role][]Permission{
	model.RoleAdmin:    {Read, Write, Delete, ManageUsers, ManageSettings},
	model.RoleManager:  {Read, Write, ManageTeam},
	model.RoleEmployee: {Read, WriteOwn},
}

// Allows reports whether role grants p. Unknown roles and permissions are denied.
func Allows(role model.Role, p Permission) bool {
	for _, granted := range table[role] {
		if granted == p {
			return true
		}
	}
	return false
}

// For returns a copy of the permissions granted to role.
func For(role model.Role) []Permission {
	return append([]Permission(nil), table[role]...)
}
