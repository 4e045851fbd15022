// Package models defines client-side views of the REST API payloads.
package models

import (
	"net/url"
	"strconv"
	"time"
)

// User mirrors the server's public user view.
type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FullName    *string   `json:"full_name"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DisplayName returns the full name when set, the username otherwise.
func (u User) DisplayName() string {
	if u.FullName != nil && *u.FullName != "" {
		return *u.FullName
	}
	return u.Username
}

// TokenPair is returned by login and refresh. RefreshToken is empty on
// refresh responses.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type RegisterRequest struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName *string `json:"full_name,omitempty"`
}

// UserUpdate is sent to PUT /users/me and PUT /users/{id}. IsActive is only
// honoured by the latter.
type UserUpdate struct {
	Email    *string `json:"email,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	Password *string `json:"password,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// UserQuery pages through GET /users. Zero Limit leaves the server default.
type UserQuery struct {
	Skip     int
	Limit    int
	IsActive *bool
}

// Values encodes q as query parameters.
func (q UserQuery) Values() url.Values {
	v := url.Values{}
	if q.Skip > 0 {
		v.Set("skip", strconv.Itoa(q.Skip))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.IsActive != nil {
		v.Set("is_active", strconv.FormatBool(*q.IsActive))
	}
	return v
}

// TokenCheck is the body of GET /auth/verify-token.
type TokenCheck struct {
	Valid    bool   `json:"valid"`
	Message  string `json:"message"`
	Username string `json:"username"`
}
