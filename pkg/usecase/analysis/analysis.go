// Package analysis runs the capture to care advice pipeline: compress the
// photographs, ask the model, validate its answer and optionally keep the
// result in the user's history.
package analysis

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/washp/pkg/adapter"
	"github.com/m-mizutani/washp/pkg/imaging"
	"github.com/m-mizutani/washp/pkg/repository"
)

var (
	ErrNoImage     = goerr.New("no image provided")
	ErrNotSignedIn = goerr.New("sign-in required to save an analysis")

	// ErrInvalidCapture is returned when a capture is not a decodable image.
	ErrInvalidCapture = goerr.New("capture is not a readable image")

	// ErrSaveFailed is returned together with a complete output when the
	// analysis succeeded but could not be stored. The storage error stays in
	// the chain.
	ErrSaveFailed = goerr.New("failed to save analysis")
)

// UseCase provides garment analysis
type UseCase struct {
	inference  adapter.Inference
	repo       repository.Repository
	images     adapter.ImageStore
	compressor *imaging.Compressor
	now        func() time.Time
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithImageStore uploads saved captures instead of inlining them as data URIs
func WithImageStore(store adapter.ImageStore) Option {
	return func(uc *UseCase) {
		uc.images = store
	}
}

func WithCompressor(c *imaging.Compressor) Option {
	return func(uc *UseCase) {
		uc.compressor = c
	}
}

func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

// New creates a new analysis UseCase instance
func New(
	inference adapter.Inference,
	repo repository.Repository,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		inference:  inference,
		repo:       repo,
		compressor: imaging.New(),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
