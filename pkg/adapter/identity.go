package adapter

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/washp/pkg/model"
)

var (
	ErrEmailInUse          = goerr.New("email already in use")
	ErrInvalidEmail        = goerr.New("invalid email")
	ErrWeakPassword        = goerr.New("weak password")
	ErrUserNotFound        = goerr.New("user not found")
	ErrWrongPassword       = goerr.New("wrong password")
	ErrTooManyRequests     = goerr.New("too many requests")
	ErrRequiresRecentLogin = goerr.New("requires recent login")
	ErrInvalidToken        = goerr.New("invalid or expired token")
	ErrUserDisabled        = goerr.New("user disabled")
	ErrMailUnavailable     = goerr.New("identity provider cannot send email")
)

// Identity is the account provider. Tokens returned in a Session are
// accepted by VerifyToken until they expire or RevokeSessions is called for
// the user.
type Identity interface {
	SignUp(ctx context.Context, cred model.Credentials, name string) (*model.Session, error)
	SignIn(ctx context.Context, cred model.Credentials) (*model.Session, error)
	VerifyToken(ctx context.Context, idToken string) (model.UserID, error)
	RevokeSessions(ctx context.Context, uid model.UserID) error
	SendVerificationEmail(ctx context.Context, idToken string) error
	SendPasswordResetEmail(ctx context.Context, email string) error
	LookupEmail(ctx context.Context, uid model.UserID) (string, error)
	DeleteUser(ctx context.Context, uid model.UserID) error
}
