package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/washp/pkg/model"
	_ "modernc.org/sqlite"
)

// SQLite implements Repository and the local credential store on a single
// database file.
type SQLite struct {
	db *sql.DB
}

var _ Repository = (*SQLite)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS history (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL,
    date_ns INTEGER NOT NULL,
    temperature TEXT NOT NULL,
    cycle TEXT NOT NULL,
    image TEXT NOT NULL,
    analysis_result TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_user_date ON history(user_id, date_ns DESC);

CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL,
    name TEXT NOT NULL,
    created_at_ns INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS local_accounts (
    user_id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    email_verified INTEGER NOT NULL DEFAULT 0,
    token_generation INTEGER NOT NULL DEFAULT 0,
    created_at_ns INTEGER NOT NULL
);
`

// NewSQLite opens (or creates) the database at path. Use ":memory:" for a
// throwaway database.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database", goerr.V("path", path))
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, goerr.Wrap(err, "failed to initialize schema", goerr.V("path", path))
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	if err := s.db.Close(); err != nil {
		return goerr.Wrap(err, "failed to close database")
	}
	return nil
}

func (s *SQLite) PutHistory(ctx context.Context, item *model.HistoryItem) error {
	if item.ID == "" {
		item.ID = model.NewHistoryID()
	}

	result, err := json.Marshal(item.AnalysisResult)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal analysis result", goerr.V("id", item.ID))
	}

	_, err = s.db.ExecContext(ctx, `
        INSERT OR REPLACE INTO history (id, user_id, name, date_ns, temperature, cycle, image, analysis_result)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(item.ID), string(item.UserID), item.Name, item.Date.UnixNano(),
		item.Temperature, item.Cycle, item.Image, string(result))
	if err != nil {
		return goerr.Wrap(err, "failed to insert history", goerr.V("id", item.ID))
	}
	return nil
}

const historyColumns = `id, user_id, name, date_ns, temperature, cycle, image, analysis_result`

func (s *SQLite) GetHistory(ctx context.Context, id model.HistoryID) (*model.HistoryItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+historyColumns+` FROM history WHERE id = ?`, string(id))
	item, err := scanHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(ErrNotFound, "history not found", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get history", goerr.V("id", id))
	}
	return item, nil
}

func (s *SQLite) ListHistory(ctx context.Context, userID model.UserID) ([]*model.HistoryItem, error) {
	return s.queryHistory(ctx, `SELECT `+historyColumns+` FROM history WHERE user_id = ? ORDER BY date_ns DESC, rowid ASC`, userID)
}

func (s *SQLite) ListHistoryUnordered(ctx context.Context, userID model.UserID) ([]*model.HistoryItem, error) {
	return s.queryHistory(ctx, `SELECT `+historyColumns+` FROM history WHERE user_id = ?`, userID)
}

func (s *SQLite) queryHistory(ctx context.Context, query string, userID model.UserID) ([]*model.HistoryItem, error) {
	rows, err := s.db.QueryContext(ctx, query, string(userID))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query history", goerr.V("user_id", userID))
	}
	defer rows.Close()

	var items []*model.HistoryItem
	for rows.Next() {
		item, err := scanHistory(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan history", goerr.V("user_id", userID))
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate history", goerr.V("user_id", userID))
	}
	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHistory(row scanner) (*model.HistoryItem, error) {
	var (
		item   model.HistoryItem
		id     string
		userID string
		dateNS int64
		result string
	)
	if err := row.Scan(&id, &userID, &item.Name, &dateNS, &item.Temperature, &item.Cycle, &item.Image, &result); err != nil {
		return nil, err
	}

	item.AnalysisResult = &model.AnalysisResult{}
	if err := json.Unmarshal([]byte(result), item.AnalysisResult); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal analysis result", goerr.V("id", id))
	}

	item.ID = model.HistoryID(id)
	item.UserID = model.UserID(userID)
	item.Date = time.Unix(0, dateNS)
	return &item, nil
}

func (s *SQLite) DeleteHistory(ctx context.Context, id model.HistoryID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE id = ?`, string(id)); err != nil {
		return goerr.Wrap(err, "failed to delete history", goerr.V("id", id))
	}
	return nil
}

func (s *SQLite) DeleteHistoryByUser(ctx context.Context, userID model.UserID) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM history WHERE user_id = ?`, string(userID))
	if err != nil {
		return 0, goerr.Wrap(err, "failed to delete history", goerr.V("user_id", userID))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count deleted history", goerr.V("user_id", userID))
	}

	if err := tx.Commit(); err != nil {
		return 0, goerr.Wrap(err, "failed to commit deletion", goerr.V("user_id", userID))
	}
	return int(n), nil
}

func (s *SQLite) PutUser(ctx context.Context, user *model.User) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT OR REPLACE INTO users (id, email, name, created_at_ns) VALUES (?, ?, ?, ?)`,
		string(user.ID), user.Email, user.Name, user.CreatedAt.UnixNano())
	if err != nil {
		return goerr.Wrap(err, "failed to put user", goerr.V("uid", user.ID))
	}
	return nil
}

func (s *SQLite) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	var (
		user      model.User
		createdNS int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT email, name, created_at_ns FROM users WHERE id = ?`, string(id)).
		Scan(&user.Email, &user.Name, &createdNS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(ErrNotFound, "user not found", goerr.V("uid", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("uid", id))
	}

	user.ID = id
	user.CreatedAt = time.Unix(0, createdNS)
	return &user, nil
}

func (s *SQLite) DeleteUser(ctx context.Context, id model.UserID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, string(id)); err != nil {
		return goerr.Wrap(err, "failed to delete user", goerr.V("uid", id))
	}
	return nil
}

func (s *SQLite) PutLocalAccount(ctx context.Context, a *model.LocalAccount) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT OR REPLACE INTO local_accounts (user_id, email, name, password_hash, email_verified, token_generation, created_at_ns)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(a.UserID), model.NormalizeEmail(a.Email), a.Name, a.PasswordHash,
		a.EmailVerified, a.TokenGeneration, a.CreatedAt.UnixNano())
	if err != nil {
		return goerr.Wrap(err, "failed to put local account", goerr.V("uid", a.UserID))
	}
	return nil
}

const accountColumns = `user_id, email, name, password_hash, email_verified, token_generation, created_at_ns`

func (s *SQLite) GetLocalAccount(ctx context.Context, uid model.UserID) (*model.LocalAccount, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM local_accounts WHERE user_id = ?`, string(uid))
	return scanAccount(row)
}

func (s *SQLite) FindLocalAccountByEmail(ctx context.Context, email string) (*model.LocalAccount, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM local_accounts WHERE email = ?`, model.NormalizeEmail(email))
	return scanAccount(row)
}

func scanAccount(row scanner) (*model.LocalAccount, error) {
	var (
		a         model.LocalAccount
		uid       string
		createdNS int64
	)
	err := row.Scan(&uid, &a.Email, &a.Name, &a.PasswordHash, &a.EmailVerified, &a.TokenGeneration, &createdNS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to scan local account")
	}

	a.UserID = model.UserID(uid)
	a.CreatedAt = time.Unix(0, createdNS)
	return &a, nil
}

func (s *SQLite) DeleteLocalAccount(ctx context.Context, uid model.UserID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM local_accounts WHERE user_id = ?`, string(uid)); err != nil {
		return goerr.Wrap(err, "failed to delete local account", goerr.V("uid", uid))
	}
	return nil
}
