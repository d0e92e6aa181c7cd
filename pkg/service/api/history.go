package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/washp/pkg/model"
	"github.com/m-mizutani/washp/pkg/usecase/history"
	"github.com/m-mizutani/washp/pkg/usecase/share"
)

type historyView struct {
	*model.HistoryItem
	DisplayDate string `json:"displayDate"`
}

func newHistoryView(item *model.HistoryItem, locale model.Locale) *historyView {
	return &historyView{
		HistoryItem: item,
		DisplayDate: history.FormatDate(item.Date, locale),
	}
}

type historyListResponse struct {
	Items   []*historyView `json:"items"`
	Warning string         `json:"warning,omitempty"`
}

// GET /api/v1/history
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) error {
	locale := localeFrom(r.Context())
	out, err := s.history.List(r.Context(), userIDFrom(r.Context()), locale)
	if err != nil {
		return err
	}

	resp := historyListResponse{
		Items:   make([]*historyView, 0, len(out.Items)),
		Warning: out.Warning,
	}
	for _, item := range out.Items {
		resp.Items = append(resp.Items, newHistoryView(item, locale))
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}

// DELETE /api/v1/history
func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) error {
	n, err := s.history.Clear(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
	return nil
}

// GET /api/v1/history/{id}
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) error {
	item, err := s.history.Get(r.Context(), userIDFrom(r.Context()), model.HistoryID(chi.URLParam(r, "id")))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, newHistoryView(item, localeFrom(r.Context())))
	return nil
}

// DELETE /api/v1/history/{id}
func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) error {
	if err := s.history.Delete(r.Context(), userIDFrom(r.Context()), model.HistoryID(chi.URLParam(r, "id"))); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /api/v1/history/{id}/share
func (s *Server) handleShareHistory(w http.ResponseWriter, r *http.Request) error {
	item, err := s.history.Get(r.Context(), userIDFrom(r.Context()), model.HistoryID(chi.URLParam(r, "id")))
	if err != nil {
		return err
	}

	payload, err := share.Build(item, s.shareBaseURL, localeFrom(r.Context()))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, payload)
	return nil
}
