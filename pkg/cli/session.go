package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/washp/pkg/model"
	"github.com/m-mizutani/washp/pkg/usecase/account"
)

func (cfg *config) sessionPath() (string, error) {
	if cfg.sessionFile != "" {
		return cfg.sessionFile, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

// loadSession returns the saved session, or account.ErrNoSession when none
// is stored.
func (cfg *config) loadSession() (*model.Session, error) {
	path, err := cfg.sessionPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, account.ErrNoSession
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read session", goerr.V("path", path))
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, goerr.Wrap(err, "failed to parse session", goerr.V("path", path))
	}
	return &session, nil
}

func (cfg *config) saveSession(session *model.Session) error {
	path, err := cfg.sessionPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to marshal session")
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return goerr.Wrap(err, "failed to write session", goerr.V("path", path))
	}
	return nil
}

func (cfg *config) removeSession() error {
	path, err := cfg.sessionPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return goerr.Wrap(err, "failed to remove session", goerr.V("path", path))
	}
	return nil
}

// currentUser loads the saved session and checks that its token is still
// accepted.
func currentUser(ctx context.Context, cfg *config, accountUC *account.UseCase) (*model.Session, error) {
	session, err := cfg.loadSession()
	if err != nil {
		return nil, err
	}
	uid, err := accountUC.Authenticate(ctx, session.IDToken)
	if err != nil {
		return nil, err
	}
	session.UserID = uid
	return session, nil
}
