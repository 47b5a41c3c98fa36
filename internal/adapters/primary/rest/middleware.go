package rest

import (
	"log/slog"
	"net/http"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/auth"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/ports"
)

// Authenticate décode le header Authorization et résout l'utilisateur local.
func Authenticate(identity ports.IdentityService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				// Format invalide -> 401 direct
				http.Error(w, "Invalid token format", http.StatusUnauthorized)
				return
			}

			// Pas de token ? On laisse passer : les lectures sont publiques,
			// les mutations deviennent des no-op.
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := identity.Authenticate(r.Context(), token)
			if err != nil {
				if domain.KindOf(err) == domain.KindUnauthenticated {
					slog.InfoContext(r.Context(), "rejected bearer token", "error", err)
					http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
					return
				}
				slog.ErrorContext(r.Context(), "❌ Failed to resolve local user", "error", err)
				http.Error(w, "Identity unavailable", statusFor(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}
