package history

import (
	"context"
	"errors"

	"github.com/m-mizutani/washp/pkg/model"
	"github.com/m-mizutani/washp/pkg/repository"
	"github.com/m-mizutani/washp/pkg/utils/logging"
)

// ListOutput carries the items of a user, newest first. Warning is a
// localised notice set when the store could only answer partially.
type ListOutput struct {
	Items   []*model.HistoryItem
	Warning string
}

var warnings = map[model.Locale]map[string]string{
	model.LocaleFR: {
		"unordered": "L'index de tri n'est pas encore disponible : l'historique a été trié localement.",
		"denied":    "Accès à l'historique refusé. Reconnectez-vous puis réessayez.",
	},
	model.LocaleEN: {
		"unordered": "The sort index is not available yet: history was sorted locally.",
		"denied":    "Access to your history was denied. Please sign in again and retry.",
	},
}

func warning(locale model.Locale, key string) string {
	m, ok := warnings[locale]
	if !ok {
		m = warnings[model.DefaultLocale]
	}
	return m[key]
}

// List returns the history of userID. A store that cannot run the ordered
// query is asked for the unordered items, which are sorted here. A store
// that denies access yields an empty list with a warning.
func (u *UseCase) List(ctx context.Context, userID model.UserID, locale model.Locale) (*ListOutput, error) {
	logger := logging.From(ctx).With("user_id", userID)

	items, err := u.repo.ListHistory(ctx, userID)
	switch {
	case err == nil:
		return &ListOutput{Items: items}, nil

	case errors.Is(err, repository.ErrIndexRequired):
		logger.Warn("ordered history query unavailable, sorting locally", "error", err)
		items, err = u.repo.ListHistoryUnordered(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrPermissionDenied) {
				return u.denied(ctx, locale, err), nil
			}
			return nil, err
		}
		repository.SortByDateDesc(items)
		return &ListOutput{Items: items, Warning: warning(locale, "unordered")}, nil

	case errors.Is(err, repository.ErrPermissionDenied):
		return u.denied(ctx, locale, err), nil

	default:
		return nil, err
	}
}

func (u *UseCase) denied(ctx context.Context, locale model.Locale, err error) *ListOutput {
	logging.From(ctx).Warn("history access denied", "error", err)
	return &ListOutput{Items: []*model.HistoryItem{}, Warning: warning(locale, "denied")}
}
