package domain

import "time"

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
	// RoleGuest is assigned when the server omits a role so authorization
	// checks never see an empty role.
	RoleGuest = "guest"
)

// Credential is the bearer token and role of the signed-in user.
type Credential struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// NormalizeRole returns role, or RoleGuest when role is blank.
func NormalizeRole(role string) string {
	if role == "" {
		return RoleGuest
	}
	return role
}

// IsAdmin reports whether the credential carries the admin role.
func (c *Credential) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}

// TokenClaims are the unverified claims decoded from a bearer token. They are
// informational only; expiry is enforced by the server.
type TokenClaims struct {
	Subject   string    `json:"subject,omitempty"`
	Role      string    `json:"role,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// Session is what login and register hand back to callers.
type Session struct {
	Credential
	Claims *TokenClaims `json:"claims,omitempty"`
}

// LoginInput is the payload of a login request.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterInput is the payload of a register request.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role,omitempty"`
}
