// Package imaging prepares captured images for the inference request.
package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"io"
	"math"
	"net/http"

	disimg "github.com/disintegration/imaging"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrBudgetUnreachable = goerr.New("image cannot be compressed within the size budget")
	ErrInvalidOptions    = goerr.New("invalid compression options")
)

// Options controls the compression search. Quality values are JPEG quality
// percentages.
type Options struct {
	MaxSizeKB    float64
	StartWidth   int
	MinWidth     int
	StartQuality int
	MinQuality   int
	QualityStep  int
	WidthRatio   float64
}

// DefaultOptions keeps a capture under 50 KB of base64 payload.
func DefaultOptions() Options {
	return Options{
		MaxSizeKB:    50,
		StartWidth:   1024,
		MinWidth:     300,
		StartQuality: 90,
		MinQuality:   10,
		QualityStep:  10,
		WidthRatio:   0.8,
	}
}

func (o Options) validate() error {
	switch {
	case o.MaxSizeKB <= 0:
		return goerr.Wrap(ErrInvalidOptions, "max size must be positive", goerr.V("max_size_kb", o.MaxSizeKB))
	case o.MinWidth <= 0 || o.StartWidth < o.MinWidth:
		return goerr.Wrap(ErrInvalidOptions, "invalid width range", goerr.V("start", o.StartWidth), goerr.V("min", o.MinWidth))
	case o.QualityStep <= 0 || o.MinQuality <= 0 || o.StartQuality > 100 || o.StartQuality < o.MinQuality:
		return goerr.Wrap(ErrInvalidOptions, "invalid quality range", goerr.V("start", o.StartQuality), goerr.V("min", o.MinQuality))
	case o.WidthRatio <= 0 || o.WidthRatio >= 1:
		return goerr.Wrap(ErrInvalidOptions, "width ratio must be in (0, 1)", goerr.V("ratio", o.WidthRatio))
	}
	return nil
}

// Encoder re-encodes img at the given pixel width and quality.
type Encoder interface {
	Encode(img image.Image, width, quality int) ([]byte, error)
}

// JPEGEncoder resizes with Lanczos filtering and encodes as JPEG. It never
// upscales.
type JPEGEncoder struct{}

func (JPEGEncoder) Encode(img image.Image, width, quality int) ([]byte, error) {
	if img.Bounds().Dx() > width {
		img = disimg.Resize(img, width, 0, disimg.Lanczos)
	}

	var buf bytes.Buffer
	if err := disimg.Encode(&buf, img, disimg.JPEG, disimg.JPEGQuality(quality)); err != nil {
		return nil, goerr.Wrap(err, "failed to encode jpeg", goerr.V("width", width), goerr.V("quality", quality))
	}
	return buf.Bytes(), nil
}

// Attempt records one encode during the search.
type Attempt struct {
	Width       int
	Quality     int
	EstimatedKB float64
}

// Result is the first encoding that fits the budget.
type Result struct {
	Base64      string
	Width       int
	Quality     int
	EstimatedKB float64
	Attempts    []Attempt
}

// Bytes decodes the payload.
func (r *Result) Bytes() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(r.Base64)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode base64 payload")
	}
	return data, nil
}

// Compressor searches for an encoding whose estimated size fits the budget.
type Compressor struct {
	opts    Options
	encoder Encoder
}

type Option func(*Compressor)

func WithOptions(opts Options) Option {
	return func(c *Compressor) {
		c.opts = opts
	}
}

func WithEncoder(enc Encoder) Option {
	return func(c *Compressor) {
		c.encoder = enc
	}
}

func New(opts ...Option) *Compressor {
	c := &Compressor{
		opts:    DefaultOptions(),
		encoder: JPEGEncoder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EstimateKB approximates the decoded size of a base64 payload as
// len * 3/4 bytes. Padding is not subtracted.
func EstimateKB(encoded string) float64 {
	return float64(len(encoded)) * 3 / 4 / 1024
}

// Compress re-encodes img at decreasing quality, and then at decreasing
// width with the quality reset, until the estimate is within the budget.
func (c *Compressor) Compress(img image.Image) (*Result, error) {
	if err := c.opts.validate(); err != nil {
		return nil, err
	}

	var attempts []Attempt
	for width := c.opts.StartWidth; width >= c.opts.MinWidth; width = int(math.Floor(float64(width) * c.opts.WidthRatio)) {
		for quality := c.opts.StartQuality; quality >= c.opts.MinQuality; quality -= c.opts.QualityStep {
			data, err := c.encoder.Encode(img, width, quality)
			if err != nil {
				return nil, err
			}

			encoded := base64.StdEncoding.EncodeToString(data)
			size := EstimateKB(encoded)
			attempts = append(attempts, Attempt{Width: width, Quality: quality, EstimatedKB: size})

			if size <= c.opts.MaxSizeKB {
				return &Result{
					Base64:      encoded,
					Width:       width,
					Quality:     quality,
					EstimatedKB: size,
					Attempts:    attempts,
				}, nil
			}
		}
	}

	return nil, goerr.Wrap(ErrBudgetUnreachable, "exhausted width and quality",
		goerr.V("max_size_kb", c.opts.MaxSizeKB),
		goerr.V("min_width", c.opts.MinWidth),
		goerr.V("attempts", len(attempts)))
}

// Load decodes a JPEG or PNG image and applies its EXIF orientation.
func Load(r io.Reader) (image.Image, error) {
	img, err := disimg.Decode(r, disimg.AutoOrientation(true))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode image")
	}
	return img, nil
}

// DetectMIMEType sniffs the content type of an encoded image.
func DetectMIMEType(data []byte) string {
	return http.DetectContentType(data)
}

// DataURI returns data as an RFC 2397 base64 data URI.
func DataURI(data []byte) string {
	return "data:" + DetectMIMEType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)
}
