package domain

import "time"

// Role separates customers from company staff.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
)

// Valid reports whether the role is recognized.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleStaff
}

// User is owned by the identity layer. The complaint core reads it,
// never mutates it.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
