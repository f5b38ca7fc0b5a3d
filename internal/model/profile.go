package model

import "time"

// UserProfile is a platform user, created on first visit (guest) or signup.
// Profiles are never hard-deleted.
type UserProfile struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Email       string         `json:"email,omitempty"`
	IsGuest     bool           `json:"is_guest"`
	ProfileData map[string]any `json:"profile_data,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ProfileUpdate carries a partial profile update. Nil fields are untouched.
type ProfileUpdate struct {
	Name        *string        `json:"name,omitempty"`
	Email       *string        `json:"email,omitempty"`
	IsGuest     *bool          `json:"is_guest,omitempty"`
	ProfileData map[string]any `json:"profile_data,omitempty"`
}

// Account backs email/password authentication.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
