package adapter

import (
	"context"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
)

// ErrEmptyResponse is returned when the model answers without any text.
var ErrEmptyResponse = goerr.New("empty response from model")

// MaxOutputTokens bounds a single analysis answer.
const MaxOutputTokens = 2800

// Image is an encoded image sent inline with a request.
type Image struct {
	Data     []byte
	MIMEType string
}

// InferenceRequest is one multimodal completion. Schema is a hint for
// providers that support structured output and may be nil.
type InferenceRequest struct {
	System string
	Prompt string
	Images []Image
	Schema *jsonschema.Schema
}

// Inference is a hosted multimodal model answering with text.
type Inference interface {
	Generate(ctx context.Context, req *InferenceRequest) (string, error)
}

type timeoutInference struct {
	inner   Inference
	timeout time.Duration
}

// WithInferenceTimeout bounds every Generate call of inner. A zero timeout
// returns inner unchanged.
func WithInferenceTimeout(inner Inference, timeout time.Duration) Inference {
	if timeout <= 0 {
		return inner
	}
	return &timeoutInference{inner: inner, timeout: timeout}
}

func (t *timeoutInference) Generate(ctx context.Context, req *InferenceRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	text, err := t.inner.Generate(ctx, req)
	if err != nil {
		return "", goerr.Wrap(err, "inference failed", goerr.V("timeout", t.timeout.String()))
	}
	return text, nil
}
