package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/washp/pkg/model"
	"github.com/m-mizutani/washp/pkg/utils/logging"
)

type ctxKey int

const (
	ctxKeyLocale ctxKey = iota
	ctxKeyUserID
	ctxKeyToken
)

func localeFrom(ctx context.Context) model.Locale {
	if l, ok := ctx.Value(ctxKeyLocale).(model.Locale); ok {
		return l
	}
	return model.DefaultLocale
}

func userIDFrom(ctx context.Context) model.UserID {
	uid, _ := ctx.Value(ctxKeyUserID).(model.UserID)
	return uid
}

func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(ctxKeyToken).(string)
	return token
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := logging.From(r.Context()).With("request_id", middleware.GetReqID(r.Context()))
		ctx := logging.With(r.Context(), logger)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"remote", r.RemoteAddr,
		)
	})
}

// detectLocale reads ?lang= first and then the first Accept-Language tag
func detectLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag := r.URL.Query().Get("lang")
		if tag == "" {
			tag, _, _ = strings.Cut(r.Header.Get("Accept-Language"), ",")
			tag, _, _ = strings.Cut(tag, ";")
		}
		ctx := context.WithValue(r.Context(), ctxKeyLocale, model.ParseLocale(tag))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			writeError(w, r, errUnauthorized)
			return
		}

		uid, err := s.account.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUserID, uid)
		ctx = context.WithValue(ctx, ctxKeyToken, token)
		ctx = logging.With(ctx, logging.From(ctx).With("uid", uid))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
