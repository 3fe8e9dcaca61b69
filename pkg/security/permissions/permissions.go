package permissions

const (
	// All is the wildcard matching any resource type, resource id or action
	All          = "*"
	ActionList   = "list"
	ActionGet    = "get"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"

	TypeUser         = "user"
	TypeService      = "service"
	TypeHistory      = "history"
	TypeRule         = "rule"
	TypeNotification = "notification"
	TypeAPIKey       = "apikey"
	TypeScheduler    = "scheduler"
)

// Permission is a single right on a resource type, a resource instance and an action.
// Every field supports the "*" wildcard.
type Permission struct {
	ResourceType string `json:"resourceType"`
	ResourceID   string `json:"resourceId"`
	Action       string `json:"action"`
}

// New returns a new Permission from a resource type, a resource id and an action
func New(resourceType string, resourceID string, action string) Permission {
	return Permission{
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Action:       action,
	}
}

func matchField(held string, required string) bool {
	return held == All || required == All || held == required
}

func matchFieldStrict(held string, required string) bool {
	return held == All || held == required
}

// matchPermission compares two permissions field by field, honoring wildcards on both sides.
// Used to filter permission sets against a pattern.
func matchPermission(held Permission, required Permission) bool {
	return matchField(held.ResourceType, required.ResourceType) &&
		matchField(held.ResourceID, required.ResourceID) &&
		matchField(held.Action, required.Action)
}

// matchPermissionStrict only honors wildcards on the held side: a required permission
// containing a wildcard is never satisfied by a specific right.
func matchPermissionStrict(held Permission, required Permission) bool {
	return matchFieldStrict(held.ResourceType, required.ResourceType) &&
		matchFieldStrict(held.ResourceID, required.ResourceID) &&
		matchFieldStrict(held.Action, required.Action)
}

// HasPermission checks if the input permission set satisfies the required permission
func HasPermission(permissions []Permission, required Permission) bool {
	for _, permission := range permissions {
		if matchPermissionStrict(permission, required) {
			return true
		}
	}
	return false
}

// HasPermissionAtLeastOne checks if the input permission set satisfies at least one of the required permissions
func HasPermissionAtLeastOne(permissions []Permission, requiredAtLeastOne []Permission) bool {
	for _, required := range requiredAtLeastOne {
		if HasPermission(permissions, required) {
			return true
		}
	}
	return false
}

// HasPermissionAll checks if the input permission set satisfies every required permission
func HasPermissionAll(permissions []Permission, requiredAll []Permission) bool {
	for _, required := range requiredAll {
		if !HasPermission(permissions, required) {
			return false
		}
	}
	return true
}

// ListMatchingPermissions returns every permission of the input set matching the input filter (wildcards on both sides)
func ListMatchingPermissions(permissions []Permission, match Permission) []Permission {
	lst := make([]Permission, 0)
	for _, permission := range permissions {
		if matchPermission(permission, match) {
			lst = append(lst, permission)
		}
	}
	return lst
}

// GetResourceIDs extracts the resource ids of a permission list
func GetResourceIDs(permissions []Permission) []string {
	resourceIDs := make([]string, 0)
	for _, permission := range permissions {
		resourceIDs = append(resourceIDs, permission.ResourceID)
	}
	return resourceIDs
}
