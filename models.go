package users

import (
	"time"

	"github.com/uptrace/bun"
)

// Role is a row in the role lookup table. Roles are created once and never
// updated or deleted by this service.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:rol"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,notnull,unique" json:"name"`
}

// User is the account model. Rows are soft deleted: RemoveUser flips Active
// and the unique username/email stay claimed by the inactive row.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID               int64     `bun:"id,pk,autoincrement" json:"id"`
	Username         string    `bun:"username,notnull,unique" json:"username"`
	Email            string    `bun:"email,notnull,unique" json:"email"`
	Description      string    `bun:"description" json:"description"`
	RoleID           int64     `bun:"role_id,notnull" json:"roleId"`
	Role             *Role     `bun:"rel:belongs-to,join:role_id=id" json:"role,omitempty"`
	Active           bool      `bun:"active,notnull" json:"active"`
	RegistrationDate time.Time `bun:"registration_date,notnull" json:"registrationDate"`
}

// UserListItem is the projection returned by the paginated user listing.
type UserListItem struct {
	Username    string `bun:"username" json:"username"`
	Email       string `bun:"email" json:"email"`
	Description string `bun:"description" json:"description"`
}

// UserDetails is the role-joined detail view for a single active user.
type UserDetails struct {
	RoleName         string    `bun:"role_name" json:"roleName"`
	RegistrationDate time.Time `bun:"registration_date" json:"registrationDate"`
}

// UsernameAvailability reports whether a username can be claimed by a brand
// new registration. Inactive rows still hold their username, so this is
// stricter than the reactivation path in Register.
type UsernameAvailability struct {
	Available bool `json:"available"`
}

// UserPatch applies partial updates onto a loaded user record. Nil fields
// leave the current value unchanged.
type UserPatch struct {
	Description *string `json:"description"`
	RoleID      *int64  `json:"roleId"`
}

// Apply merges the set fields onto the record.
func (p UserPatch) Apply(u *User) {
	if p.Description != nil {
		u.Description = *p.Description
	}
	if p.RoleID != nil {
		u.RoleID = *p.RoleID
	}
}

// IsZero reports whether the patch carries no changes.
func (p UserPatch) IsZero() bool {
	return p.Description == nil && p.RoleID == nil
}

// ListUsersParams drives the active-user listing: 1-based page, page size,
// whitelist-validated sort column, and optional substring filters that are
// AND-ed when both are present.
type ListUsersParams struct {
	Page     int
	Limit    int
	SortBy   string
	Order    string
	Username string
	Email    string
}

// TokenPayload is the identity claim embedded in issued bearer tokens.
type TokenPayload struct {
	UserID   int64  `json:"userId"`
	UserName string `json:"userName"`
}
