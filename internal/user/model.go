package user

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleManager  Role = "manager"
	RoleAuditor  Role = "auditor"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleStaff, RoleManager, RoleAuditor, RoleAdmin:
		return true
	}
	return false
}

type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

// User is the stored account record. Passwords are plaintext.
type User struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Password  string     `json:"password"`
	Email     string     `json:"email,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	Role      Role       `json:"role"`
	Name      string     `json:"name"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// Identity is the trusted session record every workflow consumes.
type Identity struct {
	ID   int64  `json:"id"`
	Role Role   `json:"role"`
	Name string `json:"name"`
}

func (u User) Identity() Identity {
	return Identity{ID: u.ID, Role: u.Role, Name: u.Name}
}

type RegisterInput struct {
	Username string
	Password string
	Name     string
	Email    string
	Phone    string
}

// ResetRequest is a pending password reset code.
type ResetRequest struct {
	Username string    `json:"username"`
	Email    string    `json:"email,omitempty"`
	Code     string    `json:"code"`
	Expiry   time.Time `json:"expiry"`
}
