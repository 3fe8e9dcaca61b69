package roles

import (
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/permissions"
)

const (
	// Admin has every permission on every resource
	Admin = "admin"
	// Operator drives service lifecycles and reads everything, but cannot administrate users or rules
	Operator = "operator"
	// Viewer has read-only access
	Viewer = "viewer"
)

// rolePermissions binds each known role name to its static permission set.
// Permission sets derive from the role carried by the user record, there is
// no dedicated role or permission storage.
var rolePermissions = map[string][]permissions.Permission{
	Admin: {
		permissions.New(permissions.All, permissions.All, permissions.All),
	},
	Operator: {
		permissions.New(permissions.TypeService, permissions.All, permissions.All),
		permissions.New(permissions.TypeHistory, permissions.All, permissions.ActionList),
		permissions.New(permissions.TypeHistory, permissions.All, permissions.ActionGet),
		permissions.New(permissions.TypeRule, permissions.All, permissions.ActionList),
		permissions.New(permissions.TypeRule, permissions.All, permissions.ActionGet),
		permissions.New(permissions.TypeNotification, permissions.All, permissions.All),
		permissions.New(permissions.TypeUser, permissions.All, permissions.ActionGet),
	},
	Viewer: {
		permissions.New(permissions.TypeService, permissions.All, permissions.ActionList),
		permissions.New(permissions.TypeService, permissions.All, permissions.ActionGet),
		permissions.New(permissions.TypeHistory, permissions.All, permissions.ActionList),
		permissions.New(permissions.TypeHistory, permissions.All, permissions.ActionGet),
		permissions.New(permissions.TypeRule, permissions.All, permissions.ActionList),
		permissions.New(permissions.TypeRule, permissions.All, permissions.ActionGet),
		permissions.New(permissions.TypeNotification, permissions.All, permissions.ActionList),
	},
}

// IsValid checks if a role name is known
func IsValid(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// GetPermissions returns the permission set of a role name (empty set for an unknown role)
func GetPermissions(role string) []permissions.Permission {
	if perms, ok := rolePermissions[role]; ok {
		return perms
	}
	return []permissions.Permission{}
}
