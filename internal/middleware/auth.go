package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/reliefhub/relief-server/internal/auth"
	"github.com/reliefhub/relief-server/internal/models"
)

type actorKey struct{}

// WithActor stores the authenticated actor on ctx
func WithActor(ctx context.Context, a models.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFromContext returns the actor set by RequireAuth
func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(models.Actor)
	return a, ok && a.ID != ""
}

// RequireAuth validates bearer tokens and puts the actor on the request context
func RequireAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if authz == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Authorization required")
				return
			}
			token, ok := auth.BearerToken(authz)
			if !ok {
				writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid or expired token")
				return
			}
			actor, err := auth.Parse(secret, token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// RequireRole rejects actors holding none of roles. It must run after RequireAuth.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Authorization required")
				return
			}
			for _, role := range roles {
				if actor.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "forbidden", "Insufficient role")
		})
	}
}
