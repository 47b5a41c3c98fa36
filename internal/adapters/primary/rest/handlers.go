package rest

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/adapters/primary/dto"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/auth"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/domain"
)

const maxBodyBytes = 1 << 20

type createPostBody struct {
	Content string `json:"content"`
	Image   string `json:"image"`
}

type createCommentBody struct {
	Content string `json:"content"`
}

type markReadBody struct {
	IDs []string `json:"ids"`
}

// --- COMMANDS ---

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	var body createPostBody
	if !decode(w, r, &body) {
		return
	}
	res := h.engagement.CreatePost(r.Context(), auth.UserID(r.Context()), body.Content, body.Image)
	writeJSON(w, http.StatusOK, dto.FromResult(res, dto.NewPost))
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	res := h.engagement.DeletePost(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "postID"))
	writeJSON(w, http.StatusOK, dto.FromResult(res, dto.Empty))
}

func (h *Handler) toggleLike(w http.ResponseWriter, r *http.Request) {
	res := h.engagement.ToggleLike(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "postID"))
	writeJSON(w, http.StatusOK, dto.FromResult(res, dto.Bool))
}

func (h *Handler) createComment(w http.ResponseWriter, r *http.Request) {
	var body createCommentBody
	if !decode(w, r, &body) {
		return
	}
	res := h.engagement.CreateComment(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "postID"), body.Content)
	writeJSON(w, http.StatusOK, dto.FromResult(res, dto.NewComment))
}

func (h *Handler) toggleFollow(w http.ResponseWriter, r *http.Request) {
	res := h.engagement.ToggleFollow(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "userID"))
	writeJSON(w, http.StatusOK, dto.FromResult(res, dto.Bool))
}

func (h *Handler) markNotificationsRead(w http.ResponseWriter, r *http.Request) {
	var body markReadBody
	if !decode(w, r, &body) {
		return
	}
	res := h.engagement.MarkNotificationsRead(r.Context(), auth.UserID(r.Context()), body.IDs)
	writeJSON(w, http.StatusOK, dto.FromResult(res, dto.Empty))
}

// --- QUERIES ---

func (h *Handler) isFollowing(w http.ResponseWriter, r *http.Request) {
	res := h.engagement.IsFollowing(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "userID"))
	writeJSON(w, http.StatusOK, dto.FromResult(res, dto.Bool))
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	res := h.engagement.ListNotifications(r.Context(), auth.UserID(r.Context()))
	writeJSON(w, http.StatusOK, dto.FromResult(res, dto.NewNotifications))
}

func (h *Handler) suggestUsers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	res := h.engagement.SuggestUsers(r.Context(), auth.UserID(r.Context()), limit)
	writeJSON(w, http.StatusOK, dto.FromResult(res, dto.NewUserCards))
}

// listPosts est en hard-fail : sans feed, la page ne peut pas s'afficher.
func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.feed.ListPosts(r.Context())
	if err != nil {
		writeError(w, r, "ListPosts", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewFeed(posts))
}

func (h *Handler) listPostsByAuthor(w http.ResponseWriter, r *http.Request) {
	posts, err := h.feed.ListPostsByAuthor(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, r, "ListPostsByAuthor", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewFeed(posts))
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.identity.GetProfile(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, r, "GetProfile", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewProfile(profile))
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.identity.GetUser(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, r, "GetUser", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewAuthor(user.Summary()))
}

// --- HELPERS ---

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("❌ write error", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "❌ Request failed", "op", op, "error", err)
	}
	http.Error(w, http.StatusText(status), status)
}

func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUnauthorized:
		return http.StatusForbidden
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindConstraintViolation:
		return http.StatusConflict
	case domain.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
