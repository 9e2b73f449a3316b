package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/marketplace/internal/domain"
	"github.com/fjod/marketplace/internal/logger"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type contextKey string

const userContextKey contextKey = "user"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// AuthMiddleware resolves the bearer token to a user and stores it in the
// request context.
func AuthMiddleware(authn Authenticator, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				respondError(w, log, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}

			user, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				handleError(w, logger.FromContext(r.Context(), log), err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userContextKey).(*domain.User)
	return user, ok && user != nil
}

// RequestLogger writes one structured entry per request.
func RequestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.FromContext(r.Context(), log).WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
			}).Info("request handled")
		})
	}
}

// requireUser writes a 401 when the request carries no authenticated user.
func requireUser(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger) (*domain.User, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, log, http.StatusUnauthorized, "unauthorized", "missing user authentication")
	}
	return user, ok
}
