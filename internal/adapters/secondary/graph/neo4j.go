package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/ports"
)

var _ ports.GraphRepository = (*Neo4jRepo)(nil)

// Neo4jRepo est une projection des arêtes follows. La source de vérité
// reste Postgres ; ce graphe ne sert qu'aux suggestions.
type Neo4jRepo struct {
	driver neo4j.DriverWithContext
}

func NewNeo4jRepo(driver neo4j.DriverWithContext) *Neo4jRepo {
	return &Neo4jRepo{driver: driver}
}

// EnsureSchema crée la contrainte d'unicité (et donc l'index) sur User.id.
func (r *Neo4jRepo) EnsureSchema(ctx context.Context) error {
	return r.write(ctx, `CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE`, nil)
}

// CreateRelation est idempotent (MERGE) : un message rejoué ne duplique rien.
func (r *Neo4jRepo) CreateRelation(ctx context.Context, actorID, targetID string) error {
	query := `
		MERGE (a:User {id: $actorId})
		MERGE (b:User {id: $targetId})
		MERGE (a)-[r:FOLLOWS]->(b)
		ON CREATE SET r.created_at = datetime()
	`
	return r.write(ctx, query, map[string]any{"actorId": actorID, "targetId": targetID})
}

func (r *Neo4jRepo) DeleteRelation(ctx context.Context, actorID, targetID string) error {
	query := `
		MATCH (a:User {id: $actorId})-[r:FOLLOWS]->(b:User {id: $targetId})
		DELETE r
	`
	return r.write(ctx, query, map[string]any{"actorId": actorID, "targetId": targetID})
}

// SuggestFollows : amis d'amis que userID ne suit pas encore, classés par
// nombre de chemins.
func (r *Neo4jRepo) SuggestFollows(ctx context.Context, userID string, limit int) ([]string, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (me:User {id: $userId})-[:FOLLOWS]->(:User)-[:FOLLOWS]->(s:User)
			WHERE s.id <> $userId AND NOT (me)-[:FOLLOWS]->(s)
			RETURN s.id AS id, count(*) AS paths
			ORDER BY paths DESC, id ASC
			LIMIT $limit
		`
		res, err := tx.Run(ctx, query, map[string]any{"userId": userID, "limit": int64(limit)})
		if err != nil {
			return nil, err
		}

		var ids []string
		for res.Next(ctx) {
			id, _ := res.Record().Get("id")
			if s, ok := id.(string); ok {
				ids = append(ids, s)
			}
		}
		return ids, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: suggest follows: %w", err)
	}
	ids, _ := result.([]string)
	return ids, nil
}

func (r *Neo4jRepo) write(ctx context.Context, query string, params map[string]any) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, params)
		return nil, err
	})
	return err
}
