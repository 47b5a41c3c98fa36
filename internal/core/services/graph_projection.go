package services

import (
	"context"
	"errors"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/ports"
)

type graphProjection struct {
	repo ports.GraphRepository
}

// NewGraphProjection recopie les arêtes follow dans Neo4j.
func NewGraphProjection(repo ports.GraphRepository) ports.GraphProjectionService {
	return &graphProjection{repo: repo}
}

func (p *graphProjection) Project(ctx context.Context, evt domain.Event) error {
	switch evt.Type {
	case domain.EventFollowCreated, domain.EventFollowDeleted:
	default:
		return nil // pas concerné
	}
	if evt.ActorID == "" || evt.TargetUserID == "" {
		return errors.New("ids cannot be empty")
	}
	if evt.Type == domain.EventFollowCreated {
		return p.repo.CreateRelation(ctx, evt.ActorID, evt.TargetUserID)
	}
	return p.repo.DeleteRelation(ctx, evt.ActorID, evt.TargetUserID)
}
