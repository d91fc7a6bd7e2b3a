// Package identity provides the user entity and the marketplace roles.
package identity

import "time"

// Role gates every lifecycle operation. The engine trusts the (userID, role)
// pair carried by the caller's token; it does not authenticate beyond that.
type Role string

const (
	RoleClient     Role = "client"
	RoleSpecialist Role = "specialist"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleSpecialist, RoleAdmin:
		return true
	}
	return false
}

// User is a marketplace account.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null;size:255" json:"email"`
	PasswordHash string    `gorm:"not null;size:100" json:"-"`
	Name         string    `gorm:"size:100" json:"name"`
	Role         Role      `gorm:"size:20;not null" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the table name for users.
func (User) TableName() string {
	return "users"
}
