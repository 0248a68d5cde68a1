package auth

import (
	"time"

	"github.com/baladiya/citizen-portal/internal/rbac"
)

// User represents an authenticated portal account.
type User struct {
	ID           int64
	Email        string
	FullName     string
	PasswordHash string
	Role         rbac.Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal converts the account into a request principal.
func (u *User) Principal(source string) *rbac.Principal {
	return &rbac.Principal{
		UserID:   u.ID,
		Email:    u.Email,
		Role:     u.Role,
		IsActive: u.IsActive,
		Source:   source,
	}
}

// userView is the JSON shape returned by the auth endpoints.
type userView struct {
	ID       int64     `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"fullName,omitempty"`
	Role     rbac.Role `json:"role"`
	IsActive bool      `json:"isActive"`
}

func viewOf(p *rbac.Principal, fullName string) userView {
	return userView{ID: p.UserID, Email: p.Email, FullName: fullName, Role: p.Role, IsActive: p.IsActive}
}
