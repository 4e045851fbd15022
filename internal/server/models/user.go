// Package models holds the server's domain types.
package models

import "time"

// User is a principal. PasswordHash never leaves the server: it is excluded
// from every JSON view.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     *string   `json:"full_name"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	IsSuperuser  bool      `json:"is_superuser"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserUpdate is a partial update; nil fields are left untouched.
type UserUpdate struct {
	Email        *string
	FullName     *string
	PasswordHash *string
	IsActive     *bool
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.Email == nil && u.FullName == nil && u.PasswordHash == nil && u.IsActive == nil
}

// UserFilter selects a page of users ordered by id.
type UserFilter struct {
	Skip     int
	Limit    int
	IsActive *bool
}

// UserStats is the aggregate reported by status endpoints.
type UserStats struct {
	Total    int `json:"total_users"`
	Active   int `json:"active_users"`
	Inactive int `json:"inactive_users"`
}
