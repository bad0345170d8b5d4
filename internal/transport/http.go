package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpggio/racekeeper/internal/mcp"
)

// MethodHandler dispatches named methods with JSON params.
type MethodHandler interface {
	Handle(ctx context.Context, operatorID, sessionID, method string, params json.RawMessage) (any, error)
}

// RouterOptions configures NewRouter. Nil fields disable their routes.
type RouterOptions struct {
	Handler MethodHandler
	Hub     *Hub
	// MCP serves /mcp. It authenticates on its own.
	MCP    http.Handler
	Auth   func(http.Handler) http.Handler
	Logger *slog.Logger
}

type server struct {
	handler MethodHandler
	logger  *slog.Logger
}

// NewRouter creates the HTTP router: /health, /mcp, /rpc and /ws.
func NewRouter(opts RouterOptions) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	srv := &server{handler: opts.Handler, logger: logger}
	r.Get("/health", srv.handleHealth)

	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
		r.Handle("/mcp/*", opts.MCP)
	}

	r.Group(func(r chi.Router) {
		if opts.Auth != nil {
			r.Use(opts.Auth)
		}
		r.Use(SessionMiddleware)
		if opts.Handler != nil {
			r.Post("/rpc", srv.handleRPC)
		}
		if opts.Hub != nil {
			r.Get("/ws", opts.Hub.ServeWS)
		}
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if err != nil {
		WriteError(w, nil, errorCode(err), err.Error(), nil)
		return
	}

	operatorID, ok := OperatorFromContext(r.Context())
	if !ok || operatorID == "" {
		http.Error(w, "missing operator", http.StatusUnauthorized)
		return
	}
	sessionID, _ := SessionIDFromContext(r.Context())

	result, err := s.handler.Handle(r.Context(), operatorID, sessionID, req.Method, req.Params)
	if err != nil {
		var apiErr *mcp.APIError
		switch {
		case errors.Is(err, mcp.ErrUnknownMethod):
			WriteError(w, req.ID, ErrMethodNotFound, err.Error(), nil)
		case errors.As(err, &apiErr) && apiErr.Code == "INVALID_PARAMS":
			WriteError(w, req.ID, ErrInvalidParams, apiErr.Message, apiErr)
		case errors.As(err, &apiErr):
			WriteError(w, req.ID, ErrApplication, apiErr.Message, apiErr)
		default:
			s.logger.Error("rpc failed", "method", req.Method, "operator_id", operatorID, "error", err)
			WriteError(w, req.ID, ErrInternal, "internal error", nil)
		}
		return
	}

	WriteResult(w, req.ID, result)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
