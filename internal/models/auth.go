package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued tokens and user info.
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	User         UserInfo  `json:"user"`
	IssuedAt     time.Time `json:"issued_at"`
}

// RefreshTokenRequest exchanges a refresh token for a new access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// RefreshTokenResponse returns the refreshed tokens.
type RefreshTokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
}

// RefreshToken represents a persisted refresh token session.
type RefreshToken struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Token     string     `db:"token" json:"token"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	IPAddress string     `db:"ip_address" json:"ip_address"`
	UserAgent string     `db:"user_agent" json:"user_agent"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID       string   `json:"id"`
	Email    string   `json:"email,omitempty"`
	FullName string   `json:"full_name,omitempty"`
	Roles    []string `json:"roles"`
	Guest    bool     `json:"guest,omitempty"`
}

// JWTClaims is the signed access token payload. Roles is optional: tokens
// issued before roles were embedded still verify.
type JWTClaims struct {
	UserID string   `json:"user_id,omitempty"`
	Roles  []string `json:"roles,omitempty"`
	Email  string   `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Claims is the verified identity attached to a request.
type Claims struct {
	SubjectID string
	Email     string
	Roles     RoleSet
	// RolesPresent is false when the token carried no roles field at all.
	RolesPresent bool
	IssuedAt     time.Time
	ExpiresAt    time.Time
	Guest        bool
}

// GuestClaims is the anonymous identity used on optional-auth routes.
func GuestClaims() *Claims {
	return &Claims{Guest: true, Roles: RoleSet{}}
}

// HasRole reports whether the claims carry role.
func (c *Claims) HasRole(role Role) bool {
	return c != nil && c.Roles.Has(role)
}

// Info renders the claims for API responses.
func (c *Claims) Info() UserInfo {
	if c == nil || c.Guest {
		return UserInfo{Guest: true, Roles: []string{}}
	}
	return UserInfo{ID: c.SubjectID, Email: c.Email, Roles: c.Roles.Strings()}
}
