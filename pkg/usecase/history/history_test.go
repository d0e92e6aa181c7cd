package history_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/washp/pkg/care"
	"github.com/m-mizutani/washp/pkg/model"
	"github.com/m-mizutani/washp/pkg/repository"
	"github.com/m-mizutani/washp/pkg/usecase/history"
)

type mockImageStore struct {
	deleted []string
	err     error
}

func (m *mockImageStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return "", errors.New("not supported")
}

func (m *mockImageStore) Delete(ctx context.Context, uri string) error {
	m.deleted = append(m.deleted, uri)
	return m.err
}

var base = time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T, repo repository.Repository, userID model.UserID, name string, day int) *model.HistoryItem {
	t.Helper()
	result := care.Default(model.LocaleEN)
	result.Title = name
	item := model.NewHistoryItem(userID, "https://images.example.com/"+name, result, base.AddDate(0, 0, day))
	gt.NoError(t, repo.PutHistory(context.Background(), item))
	return item
}

func names(items []*model.HistoryItem) []string {
	var out []string
	for _, item := range items {
		out = append(out, item.Name)
	}
	return out
}

func TestList(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	seed(t, repo, "u1", "shirt", 1)
	seed(t, repo, "u1", "coat", 3)
	seed(t, repo, "u2", "scarf", 2)
	seed(t, repo, "u1", "dress", 2)

	out, err := history.New(repo).List(ctx, "u1", model.LocaleEN)
	gt.NoError(t, err)
	gt.Equal(t, names(out.Items), []string{"coat", "dress", "shirt"})
	gt.Equal(t, out.Warning, "")
}

func TestListFallsBackToUnorderedQuery(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory(repository.WithOrderedQueryError(repository.ErrIndexRequired))
	seed(t, repo, "u1", "shirt", 1)
	seed(t, repo, "u1", "coat", 3)
	seed(t, repo, "u1", "dress", 2)

	_, err := repo.ListHistory(ctx, "u1")
	gt.True(t, errors.Is(err, repository.ErrIndexRequired))

	uc := history.New(repo)
	out, err := uc.List(ctx, "u1", model.LocaleEN)
	gt.NoError(t, err)
	gt.Equal(t, names(out.Items), []string{"coat", "dress", "shirt"})
	gt.S(t, out.Warning).Contains("sorted locally")

	fr, err := uc.List(ctx, "u1", model.LocaleFR)
	gt.NoError(t, err)
	gt.S(t, fr.Warning).Contains("trié localement")
}

func TestListPermissionDenied(t *testing.T) {
	repo := repository.NewMemory(repository.WithOrderedQueryError(repository.ErrPermissionDenied))
	seed(t, repo, "u1", "shirt", 1)

	out, err := history.New(repo).List(context.Background(), "u1", model.LocaleFR)
	gt.NoError(t, err)
	gt.A(t, out.Items).Length(0)
	gt.S(t, out.Warning).Contains("refusé")
}

func TestListOtherErrorsPropagate(t *testing.T) {
	repo := repository.NewMemory(repository.WithOrderedQueryError(errors.New("unavailable")))
	_, err := history.New(repo).List(context.Background(), "u1", model.LocaleEN)
	gt.Error(t, err)
}

func TestGetChecksOwnership(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	item := seed(t, repo, "u1", "shirt", 1)
	uc := history.New(repo)

	got, err := uc.Get(ctx, "u1", item.ID)
	gt.NoError(t, err)
	gt.Equal(t, got.Name, "shirt")

	_, err = uc.Get(ctx, "u2", item.ID)
	gt.True(t, errors.Is(err, history.ErrNotFound))

	_, err = uc.Get(ctx, "u1", "missing")
	gt.True(t, errors.Is(err, history.ErrNotFound))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	store := &mockImageStore{}
	item := seed(t, repo, "u1", "shirt", 1)
	other := seed(t, repo, "u1", "coat", 2)
	uc := history.New(repo, history.WithImageStore(store))

	gt.True(t, errors.Is(uc.Delete(ctx, "u2", item.ID), history.ErrNotFound))
	gt.A(t, store.deleted).Length(0)

	gt.NoError(t, uc.Delete(ctx, "u1", item.ID))
	gt.Equal(t, store.deleted, []string{item.Image})

	out, err := uc.List(ctx, "u1", model.LocaleEN)
	gt.NoError(t, err)
	gt.Equal(t, names(out.Items), []string{other.Name})
}

func TestDeleteIgnoresImageStoreFailure(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	item := seed(t, repo, "u1", "shirt", 1)
	uc := history.New(repo, history.WithImageStore(&mockImageStore{err: errors.New("gone")}))

	gt.NoError(t, uc.Delete(ctx, "u1", item.ID))
	_, err := repo.GetHistory(ctx, item.ID)
	gt.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	store := &mockImageStore{}
	seed(t, repo, "u1", "shirt", 1)
	seed(t, repo, "u1", "coat", 2)
	kept := seed(t, repo, "u2", "scarf", 3)
	uc := history.New(repo, history.WithImageStore(store))

	n, err := uc.Clear(ctx, "u1")
	gt.NoError(t, err)
	gt.Equal(t, n, 2)
	gt.A(t, store.deleted).Length(2)

	out, err := uc.List(ctx, "u1", model.LocaleEN)
	gt.NoError(t, err)
	gt.A(t, out.Items).Length(0)

	_, err = repo.GetHistory(ctx, kept.ID)
	gt.NoError(t, err)
}

func TestFormatDate(t *testing.T) {
	gt.Equal(t, history.FormatDate(base, model.LocaleFR), "2 janvier 2025")
	gt.Equal(t, history.FormatDate(base, model.LocaleEN), "January 2, 2025")
	gt.True(t, strings.HasSuffix(history.FormatDate(base.AddDate(0, 7, 0), model.LocaleFR), "août 2025"))
}
