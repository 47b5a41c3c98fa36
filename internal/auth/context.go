// Package auth transporte l'ID de l'utilisateur local résolu par les
// adapters primaires (HTTP, gRPC) jusqu'aux handlers.
package auth

import (
	"context"
	"errors"
	"strings"
)

// Clé privée pour le contexte (évite les collisions)
type contextKey struct{ name string }

var userCtxKey = &contextKey{"user_id"}

// ErrMalformedHeader : header présent mais pas au format "Bearer <token>".
var ErrMalformedHeader = errors.New("invalid token format")

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userCtxKey, userID)
}

// UserID renvoie "" pour un appelant anonyme.
func UserID(ctx context.Context) string {
	raw, _ := ctx.Value(userCtxKey).(string)
	return raw
}

// BearerToken extrait le token d'un header Authorization.
// Header vide = "" sans erreur (requête anonyme).
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", nil
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMalformedHeader
	}
	return strings.TrimSpace(token), nil
}
