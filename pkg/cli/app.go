package cli

import (
	"context"

	"github.com/m-mizutani/washp/pkg/adapter"
	"github.com/m-mizutani/washp/pkg/repository"
	"github.com/m-mizutani/washp/pkg/usecase/account"
	"github.com/m-mizutani/washp/pkg/usecase/analysis"
	"github.com/m-mizutani/washp/pkg/usecase/history"
)

// app bundles the use cases built from one config
type app struct {
	repo     repository.Repository
	images   adapter.ImageStore
	account  *account.UseCase
	history  *history.UseCase
	analysis *analysis.UseCase
}

// newApp initializes dependencies. The inference client is only created
// when withInference is set.
func (cfg *config) newApp(ctx context.Context, withInference bool) (*app, error) {
	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, err
	}

	identity, err := cfg.newIdentity(ctx, repo)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	images, err := cfg.newImageStore(ctx)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	a := &app{repo: repo, images: images}
	var (
		accountOpts []account.Option
		historyOpts []history.Option
	)
	if images != nil {
		accountOpts = append(accountOpts, account.WithImageStore(images))
		historyOpts = append(historyOpts, history.WithImageStore(images))
	}
	a.account = account.New(identity, repo, accountOpts...)
	a.history = history.New(repo, historyOpts...)

	if withInference {
		inference, err := cfg.newInference(ctx)
		if err != nil {
			_ = repo.Close()
			return nil, err
		}
		var opts []analysis.Option
		if images != nil {
			opts = append(opts, analysis.WithImageStore(images))
		}
		a.analysis = analysis.New(inference, repo, opts...)
	}

	return a, nil
}

func (a *app) Close() error {
	return a.repo.Close()
}
