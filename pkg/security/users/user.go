package users

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/permissions"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/roles"
)

// User is the stored identity of an operator of the API.
// The login is the unique identifier across every authentication mode.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Login     string    `json:"login" db:"login"`
	Role      string    `json:"role" db:"role"`
	LastName  string    `json:"lastName" db:"last_name"`
	FirstName string    `json:"firstName" db:"first_name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	Created   time.Time `json:"created" db:"created"`
}

// IsValid checks that a user definition carries every mandatory field:
// a login of at least 3 characters, a known role name and a last name.
func (user *User) IsValid() (bool, error) {
	if len(user.Login) < 3 {
		return false, errors.New("login is too short (less than 3 characters)")
	}
	if !roles.IsValid(user.Role) {
		return false, errors.New("unknown role " + user.Role)
	}
	if user.LastName == "" {
		return false, errors.New("last name is required")
	}
	return true, nil
}

// UserWithPassword carries a user and its clear password. It only exists on
// the creation and login paths, a stored user never exposes its password.
type UserWithPassword struct {
	User
	Password string `json:"password" db:"password"`
}

// IsValid checks the embedded user and requires a password of at least 6
// characters, which also rejects the empty one
func (user *UserWithPassword) IsValid() (bool, error) {
	if ok, err := user.User.IsValid(); !ok {
		return false, err
	}
	if len(user.Password) < 6 {
		return false, errors.New("password is too short (less than 6 characters)")
	}
	return true, nil
}

// UserWithPermissions carries a user and the permission set derived from its
// role. It is the identity handlers receive in the request context.
type UserWithPermissions struct {
	User
	Permissions []permissions.Permission `json:"permissions"`
}

// WithPermissions expands a user with the permission set of its role
func WithPermissions(user User) UserWithPermissions {
	return UserWithPermissions{
		User:        user,
		Permissions: roles.GetPermissions(user.Role),
	}
}

// HasPermission checks if the user satisfies the required permission
func (u UserWithPermissions) HasPermission(required permissions.Permission) bool {
	return permissions.HasPermission(u.Permissions, required)
}

// HasPermissionAtLeastOne checks if the user satisfies at least one of the required permissions
func (u UserWithPermissions) HasPermissionAtLeastOne(requiredAtLeastOne []permissions.Permission) bool {
	return permissions.HasPermissionAtLeastOne(u.Permissions, requiredAtLeastOne)
}

// HasPermissionAll checks if the user satisfies every required permission
func (u UserWithPermissions) HasPermissionAll(requiredAll []permissions.Permission) bool {
	return permissions.HasPermissionAll(u.Permissions, requiredAll)
}

// GetMatchingResourceIDs returns the resource ids of every user permission
// matching the input filter. Handlers use it to scope listings to the
// resources the user can individually read.
func (u UserWithPermissions) GetMatchingResourceIDs(match permissions.Permission) []string {
	return permissions.GetResourceIDs(permissions.ListMatchingPermissions(u.Permissions, match))
}
