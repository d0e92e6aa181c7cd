// Package account manages sign-up, sign-in and account removal on top of the
// configured identity provider.
package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/washp/pkg/adapter"
	"github.com/m-mizutani/washp/pkg/model"
	"github.com/m-mizutani/washp/pkg/repository"
	"github.com/m-mizutani/washp/pkg/usecase/history"
	"github.com/m-mizutani/washp/pkg/utils/logging"
)

var (
	ErrReauthMismatch = goerr.New("re-authentication resolved to another account")
	ErrNoSession      = goerr.New("not signed in")
)

// UseCase provides account operations
type UseCase struct {
	identity adapter.Identity
	repo     repository.Repository
	history  *history.UseCase
	now      func() time.Time
}

type Option func(*UseCase)

// WithImageStore removes stored captures when the account is deleted
func WithImageStore(store adapter.ImageStore) Option {
	return func(uc *UseCase) {
		uc.history = history.New(uc.repo, history.WithImageStore(store))
	}
}

func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

func New(identity adapter.Identity, repo repository.Repository, opts ...Option) *UseCase {
	uc := &UseCase{
		identity: identity,
		repo:     repo,
		history:  history.New(repo),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// SignUp creates the identity account and the profile record
func (u *UseCase) SignUp(ctx context.Context, cred model.Credentials, name string) (*model.Session, error) {
	cred = cred.Normalize()
	name = strings.TrimSpace(name)
	if err := cred.Validate(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, model.ErrEmptyName
	}

	session, err := u.identity.SignUp(ctx, cred, name)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:        session.UserID,
		Email:     cred.Email,
		Name:      name,
		CreatedAt: u.now(),
	}
	if err := u.repo.PutUser(ctx, user); err != nil {
		return nil, goerr.Wrap(err, "failed to save profile", goerr.V("uid", session.UserID))
	}
	if session.Name == "" {
		session.Name = name
	}

	logging.From(ctx).Info("account created", "uid", session.UserID)
	return session, nil
}

func (u *UseCase) SignIn(ctx context.Context, cred model.Credentials) (*model.Session, error) {
	cred = cred.Normalize()
	if cred.Email == "" {
		return nil, model.ErrInvalidEmail
	}
	if cred.Password == "" {
		return nil, model.ErrMissingPassword
	}

	session, err := u.identity.SignIn(ctx, cred)
	if err != nil {
		return nil, err
	}

	if session.Name == "" {
		if profile, err := u.repo.GetUser(ctx, session.UserID); err == nil {
			session.Name = profile.Name
		}
	}

	logging.From(ctx).Info("signed in", "uid", session.UserID)
	return session, nil
}

// SignOut revokes every token issued to the user
func (u *UseCase) SignOut(ctx context.Context, uid model.UserID) error {
	if uid == "" {
		return ErrNoSession
	}
	if err := u.identity.RevokeSessions(ctx, uid); err != nil {
		return err
	}
	logging.From(ctx).Info("signed out", "uid", uid)
	return nil
}

func (u *UseCase) SendVerificationEmail(ctx context.Context, session *model.Session) error {
	if session == nil || session.IDToken == "" {
		return ErrNoSession
	}
	return u.identity.SendVerificationEmail(ctx, session.IDToken)
}

// SendPasswordReset asks the identity provider to mail a reset link
func (u *UseCase) SendPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := model.ValidateEmail(email); err != nil {
		return err
	}
	if err := u.identity.SendPasswordResetEmail(ctx, email); err != nil {
		return err
	}
	logging.From(ctx).Info("password reset email requested")
	return nil
}

// Authenticate resolves an ID token to its user
func (u *UseCase) Authenticate(ctx context.Context, idToken string) (model.UserID, error) {
	if idToken == "" {
		return "", ErrNoSession
	}
	return u.identity.VerifyToken(ctx, idToken)
}

// Profile returns the profile record of the user
func (u *UseCase) Profile(ctx context.Context, uid model.UserID) (*model.User, error) {
	user, err := u.repo.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	user.ID = uid
	return user, nil
}

// Delete re-authenticates with the session email and password, then removes
// the history, the profile and the identity account in that order. An empty
// session email is resolved through the identity provider, so a missing
// profile does not block the deletion.
func (u *UseCase) Delete(ctx context.Context, session *model.Session, password string) error {
	if session == nil || session.UserID == "" {
		return ErrNoSession
	}
	if password == "" {
		return model.ErrMissingPassword
	}

	email := session.Email
	if email == "" {
		found, err := u.identity.LookupEmail(ctx, session.UserID)
		if err != nil {
			return err
		}
		email = found
	}

	reauth, err := u.identity.SignIn(ctx, model.Credentials{Email: email, Password: password})
	if err != nil {
		return err
	}
	if reauth.UserID != session.UserID {
		return goerr.Wrap(ErrReauthMismatch, "refusing to delete account",
			goerr.V("session_uid", session.UserID), goerr.V("reauth_uid", reauth.UserID))
	}

	logger := logging.From(ctx).With("uid", session.UserID)

	n, err := u.history.Clear(ctx, session.UserID)
	if err != nil {
		return goerr.Wrap(err, "failed to delete history")
	}
	logger.Info("history removed for account deletion", "count", n)

	if err := u.repo.DeleteUser(ctx, session.UserID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return goerr.Wrap(err, "failed to delete profile")
	}

	if err := u.identity.DeleteUser(ctx, session.UserID); err != nil {
		return err
	}

	logger.Info("account deleted")
	return nil
}
