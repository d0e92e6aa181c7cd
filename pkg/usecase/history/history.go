// Package history lists, shows and removes the saved analyses of a user.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/washp/pkg/adapter"
	"github.com/m-mizutani/washp/pkg/model"
	"github.com/m-mizutani/washp/pkg/repository"
	"github.com/m-mizutani/washp/pkg/utils/logging"
)

var ErrNotFound = goerr.New("history item not found")

// UseCase provides history operations scoped to one user
type UseCase struct {
	repo   repository.Repository
	images adapter.ImageStore
}

type Option func(*UseCase)

// WithImageStore removes stored captures together with their items
func WithImageStore(store adapter.ImageStore) Option {
	return func(uc *UseCase) {
		uc.images = store
	}
}

func New(repo repository.Repository, opts ...Option) *UseCase {
	uc := &UseCase{repo: repo}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Get returns an item owned by userID. Items of other users are reported as
// missing.
func (u *UseCase) Get(ctx context.Context, userID model.UserID, id model.HistoryID) (*model.HistoryItem, error) {
	item, err := u.repo.GetHistory(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, goerr.Wrap(ErrNotFound, "history lookup failed", goerr.V("id", id))
		}
		return nil, err
	}
	if item.UserID != userID {
		return nil, goerr.Wrap(ErrNotFound, "history owned by another user", goerr.V("id", id))
	}
	return item, nil
}

// Delete removes one item and its stored capture
func (u *UseCase) Delete(ctx context.Context, userID model.UserID, id model.HistoryID) error {
	item, err := u.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := u.repo.DeleteHistory(ctx, id); err != nil {
		return err
	}
	u.deleteImages(ctx, item)

	logging.From(ctx).Info("history deleted", "id", id, "user_id", userID)
	return nil
}

// Clear removes every item of the user and returns how many were deleted
func (u *UseCase) Clear(ctx context.Context, userID model.UserID) (int, error) {
	var items []*model.HistoryItem
	if u.images != nil {
		listed, err := u.repo.ListHistoryUnordered(ctx, userID)
		if err != nil {
			return 0, err
		}
		items = listed
	}

	n, err := u.repo.DeleteHistoryByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	u.deleteImages(ctx, items...)

	logging.From(ctx).Info("history cleared", "user_id", userID, "count", n)
	return n, nil
}

func (u *UseCase) deleteImages(ctx context.Context, items ...*model.HistoryItem) {
	if u.images == nil {
		return
	}
	for _, item := range items {
		if err := u.images.Delete(ctx, item.Image); err != nil {
			logging.From(ctx).Warn("failed to delete stored capture", "id", item.ID, "error", err)
		}
	}
}

// FormatDate renders the date of a history item for display
func FormatDate(t time.Time, locale model.Locale) string {
	return locale.FormatDate(t)
}
