// Package testhelpers démarre l'infrastructure des tests d'intégration
// (Postgres, Redis, NATS, Neo4j) dans des conteneurs via testcontainers-go.
//
// Les tests qui l'utilisent sont ignorés en mode -short ou sans Docker :
//
//	func TestRepo(t *testing.T) {
//	    dsn := testhelpers.StartPostgres(t)
//	    // ...
//	}
package testhelpers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const startupTimeout = 90 * time.Second

// StartPostgres renvoie un DSN vers une base vide. Le conteneur est détruit
// à la fin du test.
func StartPostgres(t *testing.T) string {
	t.Helper()
	skipUnlessIntegration(t)

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "engagement",
			"POSTGRES_PASSWORD": "engagement",
			"POSTGRES_DB":       "engagement",
		},
		// Le serveur redémarre une fois après l'init : on attend le 2e message.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(startupTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	addr, err := container.PortEndpoint(ctx, "5432/tcp", "")
	if err != nil {
		t.Fatalf("Failed to get postgres endpoint: %v", err)
	}
	return fmt.Sprintf("postgres://engagement:engagement@%s/engagement?sslmode=disable", addr)
}

// StartRedis renvoie l'adresse host:port d'un Redis jetable.
func StartRedis(t *testing.T) string {
	t.Helper()
	skipUnlessIntegration(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(startupTimeout),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("Failed to start redis container: %v", err)
	}

	addr, err := container.PortEndpoint(ctx, "6379/tcp", "")
	if err != nil {
		t.Fatalf("Failed to get redis endpoint: %v", err)
	}
	return addr
}

func skipUnlessIntegration(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping container-based test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

// StartNATS renvoie l'URL d'un serveur NATS avec JetStream activé.
func StartNATS(t *testing.T) string {
	t.Helper()
	skipUnlessIntegration(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "nats:2.10-alpine",
			Cmd:          []string{"-js"},
			ExposedPorts: []string{"4222/tcp"},
			WaitingFor:   wait.ForLog("Server is ready").WithStartupTimeout(startupTimeout),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("Failed to start nats container: %v", err)
	}

	addr, err := container.PortEndpoint(ctx, "4222/tcp", "nats")
	if err != nil {
		t.Fatalf("Failed to get nats endpoint: %v", err)
	}
	return addr
}

// Identifiants du conteneur démarré par StartNeo4j.
const (
	Neo4jUser     = "neo4j"
	Neo4jPassword = "engagement-test"
)

// StartNeo4j renvoie l'URI bolt:// d'un Neo4j jetable.
func StartNeo4j(t *testing.T) string {
	t.Helper()
	skipUnlessIntegration(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "neo4j:5",
			ExposedPorts: []string{"7687/tcp"},
			Env:          map[string]string{"NEO4J_AUTH": Neo4jUser + "/" + Neo4jPassword},
			WaitingFor:   wait.ForLog("Started.").WithStartupTimeout(2 * startupTimeout),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("Failed to start neo4j container: %v", err)
	}

	addr, err := container.PortEndpoint(ctx, "7687/tcp", "bolt")
	if err != nil {
		t.Fatalf("Failed to get neo4j endpoint: %v", err)
	}
	return addr
}
