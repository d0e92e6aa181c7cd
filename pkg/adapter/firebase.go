package adapter

import (
	"context"
	"errors"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/washp/pkg/model"
	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// firebaseAuth is the part of *auth.Client used by FirebaseIdentity.
type firebaseAuth interface {
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*auth.Token, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
	DeleteUser(ctx context.Context, uid string) error
}

// FirebaseIdentity manages accounts with the Firebase Admin SDK and signs
// users in through the Identity Toolkit relying party API, which is the only
// way to check a password server side.
type FirebaseIdentity struct {
	auth    firebaseAuth
	toolkit *identitytoolkit.RelyingpartyService
}

type firebaseConfig struct {
	clientOptions  []option.ClientOption
	toolkitOptions []option.ClientOption
}

type FirebaseOption func(*firebaseConfig)

// WithIdentityToolkitEndpoint overrides the relying party base URL
func WithIdentityToolkitEndpoint(endpoint string) FirebaseOption {
	return WithIdentityToolkitOptions(option.WithEndpoint(endpoint))
}

func WithIdentityToolkitOptions(opts ...option.ClientOption) FirebaseOption {
	return func(c *firebaseConfig) {
		c.toolkitOptions = append(c.toolkitOptions, opts...)
	}
}

func WithFirebaseClientOptions(opts ...option.ClientOption) FirebaseOption {
	return func(c *firebaseConfig) {
		c.clientOptions = append(c.clientOptions, opts...)
	}
}

func NewFirebaseIdentity(ctx context.Context, projectID, apiKey string, opts ...FirebaseOption) (*FirebaseIdentity, error) {
	if apiKey == "" {
		return nil, goerr.New("firebase web api key is required")
	}

	cfg := newFirebaseConfig(opts)

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, cfg.clientOptions...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize firebase app", goerr.V("project", projectID))
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firebase auth client", goerr.V("project", projectID))
	}

	return newFirebaseIdentity(ctx, client, apiKey, cfg)
}

func newFirebaseConfig(opts []FirebaseOption) *firebaseConfig {
	cfg := &firebaseConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func newFirebaseIdentity(ctx context.Context, client firebaseAuth, apiKey string, cfg *firebaseConfig) (*FirebaseIdentity, error) {
	opts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, cfg.toolkitOptions...)
	svc, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create identity toolkit client")
	}

	return &FirebaseIdentity{
		auth:    client,
		toolkit: svc.Relyingparty,
	}, nil
}

var _ Identity = (*FirebaseIdentity)(nil)

func (f *FirebaseIdentity) SignUp(ctx context.Context, cred model.Credentials, name string) (*model.Session, error) {
	user := (&auth.UserToCreate{}).
		Email(cred.Email).
		Password(cred.Password).
		DisplayName(name)

	if _, err := f.auth.CreateUser(ctx, user); err != nil {
		return nil, adminError(err, "failed to create user")
	}

	return f.SignIn(ctx, cred)
}

func (f *FirebaseIdentity) SignIn(ctx context.Context, cred model.Credentials) (*model.Session, error) {
	resp, err := f.toolkit.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             cred.Email,
		Password:          cred.Password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, toolkitError(err, "verifyPassword")
	}

	record, err := f.auth.GetUser(ctx, resp.LocalId)
	if err != nil {
		return nil, adminError(err, "failed to get user")
	}

	return &model.Session{
		UserID:        model.UserID(resp.LocalId),
		Email:         resp.Email,
		Name:          resp.DisplayName,
		IDToken:       resp.IdToken,
		RefreshToken:  resp.RefreshToken,
		EmailVerified: record.EmailVerified,
	}, nil
}

func (f *FirebaseIdentity) VerifyToken(ctx context.Context, idToken string) (model.UserID, error) {
	token, err := f.auth.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return "", goerr.Wrap(ErrInvalidToken, "id token rejected", goerr.V("cause", err.Error()))
	}
	return model.UserID(token.UID), nil
}

func (f *FirebaseIdentity) RevokeSessions(ctx context.Context, uid model.UserID) error {
	if err := f.auth.RevokeRefreshTokens(ctx, string(uid)); err != nil {
		return adminError(err, "failed to revoke refresh tokens", goerr.V("uid", uid))
	}
	return nil
}

func (f *FirebaseIdentity) SendVerificationEmail(ctx context.Context, idToken string) error {
	_, err := f.toolkit.GetOobConfirmationCode(&identitytoolkit.Relyingparty{
		RequestType: "VERIFY_EMAIL",
		IdToken:     idToken,
	}).Context(ctx).Do()
	if err != nil {
		return toolkitError(err, "getOobConfirmationCode")
	}
	return nil
}

func (f *FirebaseIdentity) SendPasswordResetEmail(ctx context.Context, email string) error {
	_, err := f.toolkit.GetOobConfirmationCode(&identitytoolkit.Relyingparty{
		RequestType: "PASSWORD_RESET",
		Email:       email,
	}).Context(ctx).Do()
	if err != nil {
		return toolkitError(err, "getOobConfirmationCode")
	}
	return nil
}

func (f *FirebaseIdentity) LookupEmail(ctx context.Context, uid model.UserID) (string, error) {
	record, err := f.auth.GetUser(ctx, string(uid))
	if err != nil {
		return "", adminError(err, "failed to get user", goerr.V("uid", uid))
	}
	if record.UserInfo == nil || record.Email == "" {
		return "", goerr.Wrap(ErrUserNotFound, "user has no email", goerr.V("uid", uid))
	}
	return record.Email, nil
}

func (f *FirebaseIdentity) DeleteUser(ctx context.Context, uid model.UserID) error {
	if err := f.auth.DeleteUser(ctx, string(uid)); err != nil {
		return adminError(err, "failed to delete user", goerr.V("uid", uid))
	}
	return nil
}

func adminError(err error, msg string, opts ...goerr.Option) error {
	opts = append(opts, goerr.V("cause", err.Error()))
	switch {
	case auth.IsEmailAlreadyExists(err):
		return goerr.Wrap(ErrEmailInUse, msg, opts...)
	case auth.IsUserNotFound(err):
		return goerr.Wrap(ErrUserNotFound, msg, opts...)
	default:
		return goerr.Wrap(err, msg, opts...)
	}
}

var toolkitErrors = map[string]error{
	"EMAIL_EXISTS":                   ErrEmailInUse,
	"INVALID_EMAIL":                  ErrInvalidEmail,
	"WEAK_PASSWORD":                  ErrWeakPassword,
	"EMAIL_NOT_FOUND":                ErrUserNotFound,
	"USER_NOT_FOUND":                 ErrUserNotFound,
	"INVALID_PASSWORD":               ErrWrongPassword,
	"INVALID_LOGIN_CREDENTIALS":      ErrWrongPassword,
	"TOO_MANY_ATTEMPTS_TRY_LATER":    ErrTooManyRequests,
	"CREDENTIAL_TOO_OLD_LOGIN_AGAIN": ErrRequiresRecentLogin,
	"INVALID_ID_TOKEN":               ErrInvalidToken,
	"TOKEN_EXPIRED":                  ErrInvalidToken,
	"USER_DISABLED":                  ErrUserDisabled,
}

// toolkitError maps API messages such as "WEAK_PASSWORD : Password should be
// at least 6 characters" to sentinel errors.
func toolkitError(err error, method string) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return goerr.Wrap(err, "identity toolkit request failed", goerr.V("method", method))
	}

	code, _, _ := strings.Cut(apiErr.Message, " ")
	if sentinel, ok := toolkitErrors[code]; ok {
		return goerr.Wrap(sentinel, "identity toolkit rejected request",
			goerr.V("method", method), goerr.V("message", apiErr.Message))
	}
	return goerr.Wrap(err, "identity toolkit error",
		goerr.V("method", method), goerr.V("status", apiErr.Code))
}
