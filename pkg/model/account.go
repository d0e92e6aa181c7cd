package model

import (
	"strings"
	"time"
)

// LocalAccount is the credential record of the built-in identity provider.
type LocalAccount struct {
	UserID          UserID    `json:"userId"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	PasswordHash    string    `json:"-"`
	EmailVerified   bool      `json:"emailVerified"`
	TokenGeneration int       `json:"tokenGeneration"`
	CreatedAt       time.Time `json:"createdAt"`
}

// NormalizeEmail returns the lookup key for an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
