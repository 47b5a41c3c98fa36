package rest

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/ports"
)

type Handler struct {
	identity   ports.IdentityService
	engagement ports.EngagementService
	feed       ports.FeedService
}

func NewHandler(identity ports.IdentityService, engagement ports.EngagementService, feed ports.FeedService) *Handler {
	return &Handler{identity: identity, engagement: engagement, feed: feed}
}

// Router monte les routes. La chaîne (de l'extérieur vers l'intérieur) :
// OTEL -> CORS -> recover -> auth -> handler.
func (h *Handler) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(h.identity))

		r.Get("/me", h.me)

		r.Get("/posts", h.listPosts)
		r.Post("/posts", h.createPost)
		r.Delete("/posts/{postID}", h.deletePost)
		r.Post("/posts/{postID}/like", h.toggleLike)
		r.Post("/posts/{postID}/comments", h.createComment)

		r.Get("/users/suggestions", h.suggestUsers)
		r.Get("/users/{username}", h.getProfile)
		r.Get("/users/{username}/posts", h.listPostsByAuthor)

		r.Get("/follows/{userID}", h.isFollowing)
		r.Post("/follows/{userID}", h.toggleFollow)

		r.Get("/notifications", h.listNotifications)
		r.Post("/notifications/read", h.markNotificationsRead)
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "baggage", "traceparent"},
		AllowCredentials: true,
	})

	return otelhttp.NewHandler(c.Handler(r), "engagement-http", otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
		return fmt.Sprintf("HTTP %s %s", r.Method, r.URL.Path)
	}))
}
