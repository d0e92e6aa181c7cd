package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/washp/pkg/model"
	"github.com/m-mizutani/washp/pkg/usecase/account"
	"github.com/m-mizutani/washp/pkg/usecase/analysis"
)

type analysisResponse struct {
	Result  *model.AnalysisResult `json:"result"`
	Outcome string                `json:"outcome"`
	Item    *historyView          `json:"item,omitempty"`
	Warning string                `json:"warning,omitempty"`
}

// POST /api/v1/analyses
// Multipart form: one or more "image" parts, optional "save=true".
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)
	if err := r.ParseMultipartForm(s.maxUploadSize); err != nil {
		return goerr.Wrap(errBadRequest, "invalid multipart body", goerr.V("cause", err.Error()))
	}

	var images [][]byte
	for _, fh := range r.MultipartForm.File["image"] {
		f, err := fh.Open()
		if err != nil {
			return goerr.Wrap(err, "failed to open uploaded image", goerr.V("filename", fh.Filename))
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return goerr.Wrap(err, "failed to read uploaded image", goerr.V("filename", fh.Filename))
		}
		images = append(images, data)
	}

	save, _ := strconv.ParseBool(r.FormValue("save"))
	locale := localeFrom(r.Context())

	out, err := s.analysis.Analyze(r.Context(), analysis.AnalyzeInput{
		UserID: userIDFrom(r.Context()),
		Locale: locale,
		Images: images,
		Save:   save,
	})
	if err != nil && !errors.Is(err, analysis.ErrSaveFailed) {
		return err
	}

	resp := analysisResponse{
		Result:  out.Result,
		Outcome: out.Outcome.String(),
	}
	if out.Item != nil {
		resp.Item = newHistoryView(out.Item, locale)
	}
	if err != nil {
		resp.Warning = account.Message(err, locale)
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}
