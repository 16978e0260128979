package model

import "time"

// Role identifiers stored in users.role_id.  Admin and staff accounts
// are excluded from customer counts and rankings.
const (
	RoleAdmin    uint8 = 1
	RoleCustomer uint8 = 2
	RoleOwner    uint8 = 3
	RoleStaff    uint8 = 4
)

// roleNames maps role ids to the names carried in access tokens.
var roleNames = map[uint8]string{
	RoleAdmin:    "ADMIN",
	RoleCustomer: "CUSTOMER",
	RoleOwner:    "OWNER",
	RoleStaff:    "STAFF",
}

// RoleName returns the token name of a role id, or "" if unknown.
func RoleName(id uint8) string { return roleNames[id] }

// IsStaffRole reports whether a role id belongs to a system or staff
// account.
func IsStaffRole(id uint8) bool { return id == RoleAdmin || id == RoleStaff }

// User represents an application user record as stored in the
// `users` table.  Handlers define separate response types with JSON
// tags; this struct is used by the repository and analytics layers.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name.
//  Email        – unique email address.
//  Phone        – optional phone number.
//  PasswordHash – bcrypt hashed password.
//  RoleID       – foreign key into the roles table.
//  IsActive     – whether the account is active.
//  CreatedAt    – signup timestamp.
//  ModifiedAt   – last profile change (nil if never modified).
type User struct {
	ID           uint64     // users.id
	Name         string     // users.name
	Email        string     // users.email
	Phone        *string    // users.phone (nullable)
	PasswordHash string     // users.password_hash
	RoleID       uint8      // users.role_id (references roles.id)
	IsActive     bool       // users.is_active
	CreatedAt    time.Time  // users.created_at
	ModifiedAt   *time.Time // users.modified_at (nullable)
}

// LastActivity is the most recent of the modification and signup
// timestamps.
func (u User) LastActivity() time.Time {
	if u.ModifiedAt != nil {
		return *u.ModifiedAt
	}
	return u.CreatedAt
}

// IsCustomer reports whether the user counts as a customer.
func (u User) IsCustomer() bool { return !IsStaffRole(u.RoleID) }
