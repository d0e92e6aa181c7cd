package cli_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/washp/pkg/adapter"
	"github.com/m-mizutani/washp/pkg/care"
	"github.com/m-mizutani/washp/pkg/cli"
	"github.com/m-mizutani/washp/pkg/model"
	"github.com/m-mizutani/washp/pkg/usecase/account"
)

type fixture struct {
	dir    string
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	return &fixture{
		dir:    t.TempDir(),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
}

func (f *fixture) sessionFile() string {
	return filepath.Join(f.dir, "session.json")
}

// run executes one command against a sqlite store and local identity kept in
// the fixture directory
func (f *fixture) run(t *testing.T, args ...string) error {
	t.Helper()
	f.stdout.Reset()
	f.stderr.Reset()

	argv := append([]string{"washp"}, args...)
	argv = append(argv,
		"--store", "sqlite",
		"--sqlite-path", filepath.Join(f.dir, "washp.db"),
		"--identity", "local",
		"--local-auth-secret", "test-secret",
		"--session-file", f.sessionFile(),
		"--locale", "en",
		"--log-level", "error",
	)

	cmd := cli.NewCommandForTest()
	cmd.Writer = f.stdout
	cmd.ErrWriter = f.stderr
	return cmd.Run(context.Background(), argv)
}

func TestAccountLifecycle(t *testing.T) {
	f := newFixture(t)

	gt.NoError(t, f.run(t, "account", "signup",
		"--email", "alice@example.com",
		"--name", "Alice",
		"--password", "secret1",
	))
	gt.S(t, f.stdout.String()).Contains("alice@example.com")

	session, err := cli.LoadSessionForTest(f.sessionFile())
	gt.NoError(t, err)
	gt.Equal(t, session.Email, "alice@example.com")
	gt.NotEqual(t, session.IDToken, "")

	gt.NoError(t, f.run(t, "account", "whoami"))
	gt.S(t, f.stdout.String()).Contains("Alice")

	gt.NoError(t, f.run(t, "history", "list"))
	gt.Equal(t, f.stdout.String(), "")

	err = f.run(t, "history", "show", "missing")
	gt.Error(t, err)

	gt.NoError(t, f.run(t, "account", "signout"))
	_, err = os.Stat(f.sessionFile())
	gt.True(t, errors.Is(err, os.ErrNotExist))

	err = f.run(t, "account", "whoami")
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("Please sign in")

	gt.NoError(t, f.run(t, "account", "signin",
		"--email", "alice@example.com",
		"--password", "secret1",
	))
	gt.S(t, f.stdout.String()).Contains("signed in")

	err = f.run(t, "account", "signin",
		"--email", "alice@example.com",
		"--password", "wrong-password",
	)
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("Incorrect password")

	gt.NoError(t, f.run(t, "account", "delete", "--password", "secret1"))
	_, err = os.Stat(f.sessionFile())
	gt.True(t, errors.Is(err, os.ErrNotExist))

	err = f.run(t, "account", "signin",
		"--email", "alice@example.com",
		"--password", "secret1",
	)
	gt.Error(t, err)
}

func TestSignUpRejectsInvalidEmail(t *testing.T) {
	f := newFixture(t)

	err := f.run(t, "account", "signup",
		"--email", "not-an-email",
		"--name", "Bob",
		"--password", "secret1",
	)
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("Invalid email address")
}

func TestResetPassword(t *testing.T) {
	f := newFixture(t)

	gt.NoError(t, f.run(t, "account", "signup",
		"--email", "carol@example.com",
		"--name", "Carol",
		"--password", "secret1",
	))

	err := f.run(t, "account", "reset-password", "--email", "carol@example.com")
	gt.True(t, errors.Is(err, adapter.ErrMailUnavailable))
	gt.S(t, err.Error()).Contains("Email delivery is not available")

	err = f.run(t, "account", "reset-password", "--email", "carol")
	gt.True(t, errors.Is(err, model.ErrInvalidEmail))
}

func TestHistoryRequiresSession(t *testing.T) {
	f := newFixture(t)

	err := f.run(t, "history", "list")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, account.ErrNoSession))
}

func TestShareRequiresID(t *testing.T) {
	f := newFixture(t)
	gt.Error(t, f.run(t, "share"))
}

func TestSessionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	_, err := cli.LoadSessionForTest(path)
	gt.True(t, errors.Is(err, account.ErrNoSession))

	session := &model.Session{
		UserID:  "u1",
		Email:   "a@example.com",
		IDToken: "token",
	}
	gt.NoError(t, cli.SaveSessionForTest(path, session))

	info, err := os.Stat(path)
	gt.NoError(t, err)
	gt.Equal(t, info.Mode().Perm(), os.FileMode(0600))

	loaded, err := cli.LoadSessionForTest(path)
	gt.NoError(t, err)
	gt.Equal(t, loaded, session)

	gt.NoError(t, cli.RemoveSessionForTest(path))
	gt.NoError(t, cli.RemoveSessionForTest(path))
}

func TestRenderResult(t *testing.T) {
	result := care.Default(model.LocaleEN)
	result.Title = "Linen Dress"

	var buf bytes.Buffer
	cli.RenderResultForTest(&buf, result, model.LocaleEN)
	out := buf.String()
	gt.S(t, out).Contains("Linen Dress\n===========")
	gt.S(t, out).Contains("Temperature: " + result.Summary.Temperature)
	gt.S(t, out).Contains("Before washing")

	buf.Reset()
	cli.RenderResultForTest(&buf, care.Default(model.LocaleFR), model.LocaleFR)
	gt.S(t, buf.String()).Contains("Avant le lavage")
	gt.S(t, buf.String()).NotContains("Before washing")
}

func TestLoadServeConfig(t *testing.T) {
	t.Run("defaults without file", func(t *testing.T) {
		sc, err := cli.LoadServeConfigForTest("")
		gt.NoError(t, err)
		gt.Equal(t, sc.Addr, ":8080")
		gt.Equal(t, sc.Timeouts.Read, 15*time.Second)
	})

	t.Run("yaml overrides", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "server.yaml")
		gt.NoError(t, os.WriteFile(path, []byte(`
addr: 127.0.0.1:9000
cors_origins:
  - https://washp.example.com
share_base_url: https://washp.example.com
max_upload_mb: 8
timeouts:
  write: 2m
`), 0600))

		sc, err := cli.LoadServeConfigForTest(path)
		gt.NoError(t, err)
		gt.Equal(t, sc.Addr, "127.0.0.1:9000")
		gt.Equal(t, sc.CORSOrigins, []string{"https://washp.example.com"})
		gt.Equal(t, sc.Timeouts.Write, 2*time.Minute)
		gt.Equal(t, sc.Timeouts.Read, 15*time.Second)

		n, err := cli.ServeOptionsCountForTest(path)
		gt.NoError(t, err)
		gt.Equal(t, n, 3)
	})

	t.Run("broken file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "server.yaml")
		gt.NoError(t, os.WriteFile(path, []byte("addr: [unterminated"), 0600))
		_, err := cli.LoadServeConfigForTest(path)
		gt.Error(t, err)
	})
}
