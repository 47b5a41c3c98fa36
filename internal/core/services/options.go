package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/ports"
)

// Option configure les services (horloge, générateur d'ID, graphe).
// Les tests injectent une horloge fixe et des IDs séquentiels.
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() string
	graph ports.GraphRepository
}

func defaultOptions(opts []Option) options {
	o := options{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

// WithGraph active les suggestions "amis d'amis" via Neo4j.
func WithGraph(g ports.GraphRepository) Option {
	return func(o *options) { o.graph = g }
}
