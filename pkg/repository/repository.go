package repository

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/washp/pkg/model"
)

var (
	ErrNotFound = goerr.New("document not found")
	// ErrIndexRequired is returned by ListHistory when the store cannot
	// serve the ordered query, e.g. a missing Firestore composite index.
	ErrIndexRequired    = goerr.New("ordered query requires an index")
	ErrPermissionDenied = goerr.New("permission denied by document store")
)

// Repository defines the interface for history and profile persistence
type Repository interface {
	// PutHistory saves a history item. An empty ID is allocated by the store
	// and written back to item.ID.
	PutHistory(ctx context.Context, item *model.HistoryItem) error

	// GetHistory retrieves a history item by ID
	GetHistory(ctx context.Context, id model.HistoryID) (*model.HistoryItem, error)

	// ListHistory retrieves the items of a user, newest first
	ListHistory(ctx context.Context, userID model.UserID) ([]*model.HistoryItem, error)

	// ListHistoryUnordered retrieves the items of a user in store order
	ListHistoryUnordered(ctx context.Context, userID model.UserID) ([]*model.HistoryItem, error)

	// DeleteHistory removes one item. Missing items are not an error.
	DeleteHistory(ctx context.Context, id model.HistoryID) error

	// DeleteHistoryByUser removes every item of a user and returns the count
	DeleteHistoryByUser(ctx context.Context, userID model.UserID) (int, error)

	PutUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)
	DeleteUser(ctx context.Context, id model.UserID) error

	Close() error
}
