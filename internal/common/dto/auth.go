package dto

import "strings"

// RegisterRequest creates a member account
type RegisterRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Username   string `json:"username" binding:"required,min=3,max=50"`
	Password   string `json:"password" binding:"required,min=6"`
	FirstName  string `json:"firstName" binding:"max=100"`
	LastName   string `json:"lastName" binding:"max=100"`
	Phone      string `json:"phone" binding:"max=30"`
	LocationID *uint  `json:"locationId"`
}

// LoginRequest accepts the email or the username in any of the login fields
type LoginRequest struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
}

// Identifier returns the first non-empty login field
func (r *LoginRequest) Identifier() string {
	for _, s := range []string{r.Login, r.Email, r.Username} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// ChangePasswordRequest represents a request to change password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}
