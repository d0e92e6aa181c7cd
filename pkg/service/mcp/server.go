// Package mcp exposes garment analysis and history as Model Context
// Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/washp/pkg/model"
	"github.com/m-mizutani/washp/pkg/service/api"
	"github.com/m-mizutani/washp/pkg/usecase/account"
	"github.com/m-mizutani/washp/pkg/usecase/analysis"
	"github.com/m-mizutani/washp/pkg/usecase/history"
	"github.com/m-mizutani/washp/pkg/utils/logging"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName       = "washp"
	defaultListLimit = 20
)

// Server binds the tools to one signed-in user. Without a user, analyses
// run but cannot be saved and history is unavailable.
type Server struct {
	analysis *analysis.UseCase
	history  *history.UseCase
	userID   model.UserID
	locale   model.Locale
	version  string
	readFile func(string) ([]byte, error)
}

type Option func(*Server)

func WithUser(uid model.UserID) Option {
	return func(s *Server) {
		s.userID = uid
	}
}

// WithLocale sets the locale used when a tool call does not give one
func WithLocale(locale model.Locale) Option {
	return func(s *Server) {
		s.locale = locale
	}
}

func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

func WithReadFile(fn func(string) ([]byte, error)) Option {
	return func(s *Server) {
		s.readFile = fn
	}
}

func New(analysisUC *analysis.UseCase, historyUC *history.UseCase, opts ...Option) *Server {
	s := &Server{
		analysis: analysisUC,
		history:  historyUC,
		locale:   model.DefaultLocale,
		version:  "dev",
		readFile: os.ReadFile,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type analyzeParams struct {
	Paths  []string `json:"paths" jsonschema:"Paths of JPEG or PNG photographs of one garment"`
	Locale string   `json:"locale,omitempty" jsonschema:"Answer language, fr or en"`
	Save   bool     `json:"save,omitempty" jsonschema:"Save the analysis to the user's history"`
}

type listHistoryParams struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of items, newest first"`
}

// MCPServer builds the protocol server with all tools registered
func (s *Server) MCPServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: s.version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_garment",
		Description: "Analyze photographs of a garment and return care instructions as JSON",
	}, s.analyzeGarment)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_history",
		Description: "List the saved garment analyses of the signed-in user",
	}, s.listHistory)

	return server
}

// Run serves the tools over stdin and stdout until ctx is canceled
func (s *Server) Run(ctx context.Context) error {
	if err := s.MCPServer().Run(ctx, &mcp.StdioTransport{}); err != nil {
		return goerr.Wrap(err, "mcp server failed")
	}
	return nil
}

// Handler serves the tools over streamable HTTP
func (s *Server) Handler() http.Handler {
	server := s.MCPServer()
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
}

// ListenAndServe serves the streamable HTTP handler until ctx is canceled
func (s *Server) ListenAndServe(ctx context.Context, addr string, timeouts api.Timeouts) error {
	return api.Serve(ctx, addr, s.Handler(), timeouts)
}

func (s *Server) analyzeGarment(ctx context.Context, _ *mcp.CallToolRequest, params *analyzeParams) (*mcp.CallToolResult, any, error) {
	locale := s.locale
	if params.Locale != "" {
		locale = model.ParseLocale(params.Locale)
	}

	images := make([][]byte, 0, len(params.Paths))
	for _, path := range params.Paths {
		data, err := s.readFile(path)
		if err != nil {
			return toolError(goerr.Wrap(err, "failed to read image", goerr.V("path", path)), locale), nil, nil
		}
		images = append(images, data)
	}

	out, err := s.analysis.Analyze(ctx, analysis.AnalyzeInput{
		UserID: s.userID,
		Locale: locale,
		Images: images,
		Save:   params.Save,
	})
	if err != nil && out == nil {
		logging.From(ctx).Warn("analyze_garment failed", "error", err)
		return toolError(err, locale), nil, nil
	}

	resp := map[string]any{
		"result":  out.Result,
		"outcome": out.Outcome.String(),
	}
	if out.Item != nil {
		resp["historyId"] = out.Item.ID
	}
	if err != nil {
		resp["warning"] = account.Message(err, locale)
	}
	return jsonResult(resp)
}

func (s *Server) listHistory(ctx context.Context, _ *mcp.CallToolRequest, params *listHistoryParams) (*mcp.CallToolResult, any, error) {
	if s.userID == "" {
		return toolError(account.ErrNoSession, s.locale), nil, nil
	}

	out, err := s.history.List(ctx, s.userID, s.locale)
	if err != nil {
		logging.From(ctx).Warn("list_history failed", "error", err)
		return toolError(err, s.locale), nil, nil
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	items := out.Items
	if len(items) > limit {
		items = items[:limit]
	}

	type entry struct {
		ID          model.HistoryID `json:"id"`
		Name        string          `json:"name"`
		Date        string          `json:"date"`
		Temperature string          `json:"temperature"`
		Cycle       string          `json:"cycle"`
	}
	entries := make([]entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, entry{
			ID:          item.ID,
			Name:        item.Name,
			Date:        history.FormatDate(item.Date, s.locale),
			Temperature: item.Temperature,
			Cycle:       item.Cycle,
		})
	}

	resp := map[string]any{"items": entries}
	if out.Warning != "" {
		resp["warning"] = out.Warning
	}
	return jsonResult(resp)
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to marshal tool result")
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

func toolError(err error, locale model.Locale) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: account.Message(err, locale)}},
	}
}
