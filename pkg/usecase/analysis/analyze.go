package analysis

import (
	"bytes"
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/washp/pkg/adapter"
	"github.com/m-mizutani/washp/pkg/care"
	"github.com/m-mizutani/washp/pkg/imaging"
	"github.com/m-mizutani/washp/pkg/model"
	"github.com/m-mizutani/washp/pkg/utils/logging"
)

type AnalyzeInput struct {
	UserID model.UserID
	Locale model.Locale
	// Images are encoded JPEG or PNG files. The first one is kept in history.
	Images [][]byte
	Save   bool
}

type AnalyzeOutput struct {
	Result  *model.AnalysisResult
	Outcome care.Outcome
	// Item is the stored history record, nil unless saved.
	Item     *model.HistoryItem
	Captures []*imaging.Result
}

// Analyze never fails because of the model: transport errors and unusable
// answers resolve to the default result of the locale.
func (u *UseCase) Analyze(ctx context.Context, input AnalyzeInput) (*AnalyzeOutput, error) {
	if len(input.Images) == 0 {
		return nil, ErrNoImage
	}
	if input.Save && input.UserID == "" {
		return nil, ErrNotSignedIn
	}

	locale := input.Locale
	if locale == "" {
		locale = model.DefaultLocale
	}
	logger := logging.From(ctx).With("locale", locale, "images", len(input.Images))

	captures, err := u.compress(input.Images)
	if err != nil {
		return nil, err
	}

	prompt, err := buildPrompt(len(captures), locale)
	if err != nil {
		return nil, err
	}

	req := &adapter.InferenceRequest{
		System: systemPrompt,
		Prompt: prompt,
		Schema: care.Schema(),
	}
	for _, c := range captures {
		data, err := c.Bytes()
		if err != nil {
			return nil, err
		}
		req.Images = append(req.Images, adapter.Image{Data: data, MIMEType: "image/jpeg"})
	}

	out := &AnalyzeOutput{Captures: captures}
	text, err := u.inference.Generate(ctx, req)
	if err != nil {
		logger.Warn("inference failed, using default analysis", "error", err)
		out.Result, out.Outcome = care.Default(locale), care.OutcomeFallback
	} else {
		out.Result, out.Outcome = care.Parse(text, locale)
		if out.Outcome != care.OutcomeValid {
			logger.Warn("model answer did not match the schema", "outcome", out.Outcome.String(), "response", text)
		}
	}
	logger.Info("garment analyzed", "title", out.Result.Title, "outcome", out.Outcome.String())

	if !input.Save {
		return out, nil
	}

	item, err := u.save(ctx, input.UserID, req.Images[0].Data, out.Result)
	if err != nil {
		return out, goerr.Wrap(errors.Join(ErrSaveFailed, err), "analysis was not stored",
			goerr.V("user_id", input.UserID))
	}
	out.Item = item
	return out, nil
}

func (u *UseCase) compress(images [][]byte) ([]*imaging.Result, error) {
	captures := make([]*imaging.Result, 0, len(images))
	for i, data := range images {
		img, err := imaging.Load(bytes.NewReader(data))
		if err != nil {
			return nil, goerr.Wrap(errors.Join(ErrInvalidCapture, err), "failed to read capture", goerr.V("index", i))
		}

		c, err := u.compressor.Compress(img)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to compress capture", goerr.V("index", i))
		}
		captures = append(captures, c)
	}
	return captures, nil
}

func (u *UseCase) save(ctx context.Context, userID model.UserID, capture []byte, result *model.AnalysisResult) (*model.HistoryItem, error) {
	image := imaging.DataURI(capture)
	if u.images != nil {
		key := string(userID) + "/" + uuid.NewString() + ".jpg"
		uri, err := u.images.Put(ctx, key, capture, "image/jpeg")
		if err != nil {
			return nil, err
		}
		image = uri
	}

	item := model.NewHistoryItem(userID, image, result.Clone(), u.now())
	if err := u.repo.PutHistory(ctx, item); err != nil {
		if u.images != nil {
			if delErr := u.images.Delete(ctx, image); delErr != nil {
				logging.From(ctx).Warn("failed to remove orphaned capture", "uri", image, "error", delErr)
			}
		}
		return nil, err
	}

	logging.From(ctx).Info("analysis saved", "id", item.ID, "user_id", userID)
	return item, nil
}
