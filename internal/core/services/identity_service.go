package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/ports"
)

// IdentityService implémente ports.IdentityService.
// Il fait le pont entre le fournisseur d'identité externe et la table users.
type IdentityService struct {
	users    ports.UserRepository
	verifier ports.PrincipalVerifier
	now      func() time.Time
	newID    func() string
}

func NewIdentityService(users ports.UserRepository, verifier ports.PrincipalVerifier, opts ...Option) *IdentityService {
	o := defaultOptions(opts)
	return &IdentityService{
		users:    users,
		verifier: verifier,
		now:      o.now,
		newID:    o.newID,
	}
}

// ResolveLocalUser renvoie l'ID local du principal, en le créant au besoin.
func (s *IdentityService) ResolveLocalUser(ctx context.Context, principal *domain.Principal) (string, error) {
	// 1. Domaine : dérivation username / name (validation email incluse)
	user, err := domain.NewUserFromPrincipal(principal, s.newID(), s.now())
	if err != nil {
		return "", err
	}

	// 2. Persistance : upsert atomique, l'ID stocké gagne
	stored, err := s.users.UpsertByExternalID(ctx, user)
	if errors.Is(err, domain.ErrStoreUnavailable) || errors.Is(err, domain.ErrConflict) {
		// L'upsert est idempotent : seule opération autorisée à retenter.
		// Deux premiers contacts concurrents : le perdant repasse par la branche UPDATE.
		slog.WarnContext(ctx, "⚠️ Upsert failed, retrying once", "external_id", user.ExternalID, "error", err)
		stored, err = s.users.UpsertByExternalID(ctx, user)
	}
	if err != nil {
		return "", fmt.Errorf("resolve local user: %w", err)
	}
	return stored.ID, nil
}

// Authenticate vérifie le bearer token puis résout l'utilisateur local.
func (s *IdentityService) Authenticate(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" || s.verifier == nil {
		return "", domain.ErrUnauthenticated
	}

	principal, err := s.verifier.Verify(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	return s.ResolveLocalUser(ctx, principal)
}

func (s *IdentityService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return s.users.GetByID(ctx, userID)
}

func (s *IdentityService) GetProfile(ctx context.Context, username string) (*domain.Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.ErrUserNotFound
	}
	return s.users.GetProfileByUsername(ctx, username)
}
