package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Credential is an account held by the password identity service. Its ID is
// the subject that keys the administrator's document-store identity.
type Credential struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session is what a successful password sign-in yields.
type Session struct {
	Subject   string
	Token     string
	ExpiresAt time.Time
}
