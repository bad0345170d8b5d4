package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

type operatorKey struct{}

// OperatorResolver resolves an operator ID from a bearer token.
type OperatorResolver interface {
	ResolveOperator(ctx context.Context, token string) (string, error)
}

// OperatorFromContext returns the operator ID from context, if present.
func OperatorFromContext(ctx context.Context) (string, bool) {
	operatorID, ok := ctx.Value(operatorKey{}).(string)
	return operatorID, ok
}

// WithOperator stores an operator ID in ctx.
func WithOperator(ctx context.Context, operatorID string) context.Context {
	return context.WithValue(ctx, operatorKey{}, operatorID)
}

// AuthMiddleware enforces bearer token authentication. Websocket clients that
// cannot set headers may pass the token as the "token" query parameter.
func AuthMiddleware(resolver OperatorResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			operatorID, err := resolver.ResolveOperator(r.Context(), token)
			if err != nil || operatorID == "" {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), operatorID)))
		})
	}
}

// StaticOperator injects a fixed operator when authentication is disabled.
func StaticOperator(operatorID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), operatorID)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
