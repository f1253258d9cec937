package domain

import "time"

// Role enumerates the access levels an account can hold.
type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleFirstLine  Role = "FIRST_LINE"
	RoleSecondLine Role = "SECOND_LINE"
)

// SupportCapable reports whether the role may work tickets (be
// assigned, respond on behalf of the helpdesk).
func (r Role) SupportCapable() bool {
	switch r {
	case RoleAdmin, RoleFirstLine, RoleSecondLine:
		return true
	}
	return false
}

// Valid reports whether the role is a known value.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleFirstLine, RoleSecondLine:
		return true
	}
	return false
}

// User is the account model for requesters and support staff alike.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Ref returns the display-ready reference shape embedded in tickets,
// responses and push events.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// UserRef is a resolved account reference carried inside ticket
// snapshots. Events carry resolved references, never bare ids.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}
