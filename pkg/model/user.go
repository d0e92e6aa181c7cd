package model

import (
	"net/mail"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrInvalidEmail    = goerr.New("invalid email address")
	ErrWeakPassword    = goerr.New("password must be at least 6 characters")
	ErrEmptyName       = goerr.New("name is empty")
	ErrMissingPassword = goerr.New("password is required")
)

// MinPasswordLength matches the identity provider's own minimum.
const MinPasswordLength = 6

// UserID is the opaque identifier assigned by the identity provider.
type UserID string

// User is the profile record kept next to the identity account.
type User struct {
	ID        UserID    `json:"id" firestore:"-"`
	Email     string    `json:"email" firestore:"email"`
	Name      string    `json:"name" firestore:"name"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}

// Session is the signed-in state handed out by the identity provider.
type Session struct {
	UserID        UserID `json:"userId"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	IDToken       string `json:"idToken"`
	RefreshToken  string `json:"refreshToken,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
}

// Credentials is an email/password pair used for sign-up, sign-in and
// re-authentication.
type Credentials struct {
	Email    string
	Password string
}

// Normalize trims the email. Passwords are kept verbatim.
func (c Credentials) Normalize() Credentials {
	return Credentials{
		Email:    strings.TrimSpace(c.Email),
		Password: c.Password,
	}
}

// Validate checks the email syntax and password length
func (c Credentials) Validate() error {
	if c.Password == "" {
		return ErrMissingPassword
	}
	if err := ValidateEmail(c.Email); err != nil {
		return err
	}
	if len([]rune(c.Password)) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// ValidateEmail accepts a bare address without display name
func ValidateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil || strings.ContainsAny(email, " <>") {
		return goerr.Wrap(ErrInvalidEmail, "malformed email", goerr.V("email", email))
	}
	return nil
}
