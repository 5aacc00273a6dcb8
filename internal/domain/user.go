package domain

import "time"

// Role enumerates the closed set of actor roles. Every authorization decision
// switches exhaustively over this set; unknown values always deny.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleAgent   Role = "AGENT"
	RoleUser    Role = "USER"
)

// IsStaff reports whether the role belongs to helpdesk personnel.
func (r Role) IsStaff() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleAgent:
		return true
	case RoleUser:
		return false
	default:
		return false
	}
}

// Valid reports whether the role is one of the known variants.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleAgent, RoleUser:
		return true
	default:
		return false
	}
}

// User is the single identity model; role spans customers and staff.
type User struct {
	ID                    string
	Name                  string
	Email                 string
	PasswordHash          string
	Role                  Role
	Subscription          Tier
	SubscriptionExpiresAt *time.Time
	CompanyID             *string
	Permissions           []string
	Active                bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// HasPermission checks explicit capability strings granted to the user.
func (u *User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}
