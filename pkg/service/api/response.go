package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/washp/pkg/adapter"
	"github.com/m-mizutani/washp/pkg/imaging"
	"github.com/m-mizutani/washp/pkg/model"
	"github.com/m-mizutani/washp/pkg/repository"
	"github.com/m-mizutani/washp/pkg/usecase/account"
	"github.com/m-mizutani/washp/pkg/usecase/analysis"
	"github.com/m-mizutani/washp/pkg/usecase/history"
	"github.com/m-mizutani/washp/pkg/utils/logging"
)

var (
	errBadRequest   = goerr.New("malformed request")
	errUnauthorized = goerr.Wrap(account.ErrNoSession, "missing bearer token")
)

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (s *Server) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			writeError(w, r, err)
		}
	}
}

var statusMap = []struct {
	err    error
	status int
}{
	{errBadRequest, http.StatusBadRequest},
	{analysis.ErrNoImage, http.StatusBadRequest},
	{analysis.ErrInvalidCapture, http.StatusBadRequest},
	{imaging.ErrBudgetUnreachable, http.StatusUnprocessableEntity},
	{model.ErrInvalidEmail, http.StatusBadRequest},
	{model.ErrWeakPassword, http.StatusBadRequest},
	{model.ErrMissingPassword, http.StatusBadRequest},
	{model.ErrEmptyName, http.StatusBadRequest},
	{adapter.ErrInvalidEmail, http.StatusBadRequest},
	{adapter.ErrWeakPassword, http.StatusBadRequest},
	{account.ErrNoSession, http.StatusUnauthorized},
	{analysis.ErrNotSignedIn, http.StatusUnauthorized},
	{adapter.ErrInvalidToken, http.StatusUnauthorized},
	{adapter.ErrWrongPassword, http.StatusUnauthorized},
	{adapter.ErrUserNotFound, http.StatusUnauthorized},
	{adapter.ErrUserDisabled, http.StatusForbidden},
	{adapter.ErrRequiresRecentLogin, http.StatusForbidden},
	{account.ErrReauthMismatch, http.StatusForbidden},
	{history.ErrNotFound, http.StatusNotFound},
	{repository.ErrNotFound, http.StatusNotFound},
	{adapter.ErrEmailInUse, http.StatusConflict},
	{adapter.ErrTooManyRequests, http.StatusTooManyRequests},
	{adapter.ErrMailUnavailable, http.StatusNotImplemented},
}

func statusOf(err error) int {
	for _, m := range statusMap {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	logger := logging.From(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	} else {
		logger.Info("request rejected", "status", status, "error", err)
	}

	writeJSON(w, status, map[string]string{
		"error": account.Message(err, localeFrom(r.Context())),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return goerr.Wrap(errBadRequest, "invalid json body", goerr.V("cause", err.Error()))
	}
	return nil
}
