package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/watchparty/server/internal/service/auth"
	"github.com/watchparty/server/pkg/ctxlogger"
	"github.com/watchparty/server/pkg/rest"
)

func (c *controller) requestIdMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := ctxlogger.AppendCtx(r.Context(), slog.String("request_id", uuid.NewString()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (c *controller) requestLoggingMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"url", r.URL.String(),
			"remote_addr", r.RemoteAddr,
		)
		next.ServeHTTP(w, r)
	})
}

// getCredential pulls the bearer credential from the Authorization header,
// falling back to the token query parameter for websocket clients that
// cannot set headers.
func (c *controller) getCredential(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		return strings.TrimPrefix(header, "Bearer ")
	}

	return r.URL.Query().Get("token")
}

// authMw verifies the request credential and attaches the resolved identity
// to the request context. Requests without a valid credential never reach
// the wrapped handler.
func (c *controller) authMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := c.authService.Verify(c.getCredential(r))
		if err != nil {
			c.logger.DebugContext(r.Context(), "authentication failed", "error", err)
			rest.WriteJSON(w, http.StatusUnauthorized, rest.Envelope{"error": authErrorMessage(err)})
			return
		}

		ctx := context.WithValue(r.Context(), identityCtxKey, identity)
		ctx = ctxlogger.AppendCtx(ctx, slog.String("user_id", identity.UserId))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func authErrorMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return "authentication required"
	case errors.Is(err, auth.ErrExpiredCredential):
		return "credential expired"
	default:
		return "invalid credential"
	}
}
