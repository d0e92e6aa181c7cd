package adapter

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/washp/pkg/model"
	"github.com/m-mizutani/washp/pkg/utils/logging"
	"golang.org/x/crypto/bcrypt"
)

// LocalAccountStore persists credentials of the local identity provider.
// Lookups return nil without error when nothing matches.
type LocalAccountStore interface {
	PutLocalAccount(ctx context.Context, account *model.LocalAccount) error
	GetLocalAccount(ctx context.Context, uid model.UserID) (*model.LocalAccount, error)
	FindLocalAccountByEmail(ctx context.Context, email string) (*model.LocalAccount, error)
	DeleteLocalAccount(ctx context.Context, uid model.UserID) error
}

const (
	defaultMaxFailures = 5
	defaultLockout     = time.Minute
	defaultTokenTTL    = 24 * time.Hour
	localTokenIssuer   = "washp-local"
)

// LocalIdentity is a self-contained identity provider for offline use.
// Passwords are hashed with bcrypt and ID tokens are HS256 JWTs that expire
// after the token TTL.
type LocalIdentity struct {
	store       LocalAccountStore
	secret      []byte
	cost        int
	maxFailures int
	lockout     time.Duration
	tokenTTL    time.Duration
	now         func() time.Time

	mu       sync.Mutex
	failures map[string]*signInFailure
}

type signInFailure struct {
	count int
	last  time.Time
}

type LocalIdentityOption func(*LocalIdentity)

func WithBcryptCost(cost int) LocalIdentityOption {
	return func(l *LocalIdentity) {
		l.cost = cost
	}
}

// WithSignInLockout rejects sign-in for lockout after max consecutive
// failures for the same email.
func WithSignInLockout(max int, lockout time.Duration) LocalIdentityOption {
	return func(l *LocalIdentity) {
		l.maxFailures = max
		l.lockout = lockout
	}
}

func WithTokenTTL(ttl time.Duration) LocalIdentityOption {
	return func(l *LocalIdentity) {
		l.tokenTTL = ttl
	}
}

func WithClock(now func() time.Time) LocalIdentityOption {
	return func(l *LocalIdentity) {
		l.now = now
	}
}

func NewLocalIdentity(store LocalAccountStore, secret []byte, opts ...LocalIdentityOption) (*LocalIdentity, error) {
	if len(secret) == 0 {
		return nil, goerr.New("local identity secret is required")
	}

	l := &LocalIdentity{
		store:       store,
		secret:      secret,
		cost:        bcrypt.DefaultCost,
		maxFailures: defaultMaxFailures,
		lockout:     defaultLockout,
		tokenTTL:    defaultTokenTTL,
		now:         time.Now,
		failures:    make(map[string]*signInFailure),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

var _ Identity = (*LocalIdentity)(nil)

func (l *LocalIdentity) SignUp(ctx context.Context, cred model.Credentials, name string) (*model.Session, error) {
	email := model.NormalizeEmail(cred.Email)

	existing, err := l.store.FindLocalAccountByEmail(ctx, email)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to look up account")
	}
	if existing != nil {
		return nil, goerr.Wrap(ErrEmailInUse, "account exists", goerr.V("email", email))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cred.Password), l.cost)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to hash password")
	}

	account := &model.LocalAccount{
		UserID:       model.UserID(strings.ReplaceAll(uuid.NewString(), "-", "")),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    l.now(),
	}
	if err := l.store.PutLocalAccount(ctx, account); err != nil {
		return nil, goerr.Wrap(err, "failed to save account", goerr.V("uid", account.UserID))
	}

	logging.From(ctx).Info("local account created", "uid", account.UserID)
	return l.session(account)
}

func (l *LocalIdentity) SignIn(ctx context.Context, cred model.Credentials) (*model.Session, error) {
	email := model.NormalizeEmail(cred.Email)
	if l.lockedOut(email) {
		return nil, goerr.Wrap(ErrTooManyRequests, "sign-in locked", goerr.V("email", email))
	}

	account, err := l.store.FindLocalAccountByEmail(ctx, email)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to look up account")
	}
	if account == nil {
		return nil, goerr.Wrap(ErrUserNotFound, "no account for email", goerr.V("email", email))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(cred.Password)); err != nil {
		l.recordFailure(email)
		return nil, goerr.Wrap(ErrWrongPassword, "password mismatch", goerr.V("uid", account.UserID))
	}

	l.clearFailures(email)
	return l.session(account)
}

func (l *LocalIdentity) VerifyToken(ctx context.Context, idToken string) (model.UserID, error) {
	claims, err := l.parseToken(idToken)
	if err != nil {
		return "", err
	}

	uid := model.UserID(claims.Subject)
	account, err := l.store.GetLocalAccount(ctx, uid)
	if err != nil {
		return "", goerr.Wrap(err, "failed to look up account")
	}
	if account == nil || account.TokenGeneration != claims.Generation {
		return "", goerr.Wrap(ErrInvalidToken, "token revoked", goerr.V("uid", uid))
	}
	return account.UserID, nil
}

func (l *LocalIdentity) RevokeSessions(ctx context.Context, uid model.UserID) error {
	account, err := l.account(ctx, uid)
	if err != nil {
		return err
	}

	account.TokenGeneration++
	if err := l.store.PutLocalAccount(ctx, account); err != nil {
		return goerr.Wrap(err, "failed to save account", goerr.V("uid", uid))
	}
	return nil
}

// SendPasswordResetEmail fails with ErrMailUnavailable for existing accounts
// since the local provider has no mail transport.
func (l *LocalIdentity) SendPasswordResetEmail(ctx context.Context, email string) error {
	email = model.NormalizeEmail(email)
	account, err := l.store.FindLocalAccountByEmail(ctx, email)
	if err != nil {
		return goerr.Wrap(err, "failed to look up account")
	}
	if account == nil {
		return goerr.Wrap(ErrUserNotFound, "no account for email", goerr.V("email", email))
	}
	return goerr.Wrap(ErrMailUnavailable, "password reset requires a mail transport", goerr.V("uid", account.UserID))
}

func (l *LocalIdentity) LookupEmail(ctx context.Context, uid model.UserID) (string, error) {
	account, err := l.account(ctx, uid)
	if err != nil {
		return "", err
	}
	return account.Email, nil
}

// SendVerificationEmail marks the address as verified. No mail is sent.
func (l *LocalIdentity) SendVerificationEmail(ctx context.Context, idToken string) error {
	uid, err := l.VerifyToken(ctx, idToken)
	if err != nil {
		return err
	}

	account, err := l.account(ctx, uid)
	if err != nil {
		return err
	}

	account.EmailVerified = true
	if err := l.store.PutLocalAccount(ctx, account); err != nil {
		return goerr.Wrap(err, "failed to save account", goerr.V("uid", uid))
	}

	logging.From(ctx).Info("email marked as verified by local identity", "uid", uid)
	return nil
}

func (l *LocalIdentity) DeleteUser(ctx context.Context, uid model.UserID) error {
	if _, err := l.account(ctx, uid); err != nil {
		return err
	}
	if err := l.store.DeleteLocalAccount(ctx, uid); err != nil {
		return goerr.Wrap(err, "failed to delete account", goerr.V("uid", uid))
	}
	return nil
}

func (l *LocalIdentity) account(ctx context.Context, uid model.UserID) (*model.LocalAccount, error) {
	account, err := l.store.GetLocalAccount(ctx, uid)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to look up account", goerr.V("uid", uid))
	}
	if account == nil {
		return nil, goerr.Wrap(ErrUserNotFound, "no account", goerr.V("uid", uid))
	}
	return account, nil
}

func (l *LocalIdentity) session(account *model.LocalAccount) (*model.Session, error) {
	now := l.now()
	claims := &tokenClaims{
		Generation: account.TokenGeneration,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    localTokenIssuer,
			Subject:   string(account.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(l.tokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(l.secret)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to sign id token", goerr.V("uid", account.UserID))
	}

	return &model.Session{
		UserID:        account.UserID,
		Email:         account.Email,
		Name:          account.Name,
		IDToken:       token,
		EmailVerified: account.EmailVerified,
	}, nil
}

type tokenClaims struct {
	Generation int `json:"gen"`
	jwt.RegisteredClaims
}

func (l *LocalIdentity) parseToken(idToken string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(idToken, claims,
		func(token *jwt.Token) (any, error) {
			return l.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(localTokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(l.now),
	)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidToken, "id token rejected", goerr.V("cause", err.Error()))
	}
	if claims.Subject == "" {
		return nil, goerr.Wrap(ErrInvalidToken, "id token has no subject")
	}
	return claims, nil
}

func (l *LocalIdentity) lockedOut(email string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, ok := l.failures[email]
	if !ok || f.count < l.maxFailures {
		return false
	}
	if l.now().Sub(f.last) >= l.lockout {
		delete(l.failures, email)
		return false
	}
	return true
}

func (l *LocalIdentity) recordFailure(email string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, ok := l.failures[email]
	if !ok {
		f = &signInFailure{}
		l.failures[email] = f
	}
	f.count++
	f.last = l.now()
}

func (l *LocalIdentity) clearFailures(email string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, email)
}
