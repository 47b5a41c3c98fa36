package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/adapters/secondary/eventbroker"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/ports"
)

const (
	ConsumerName   = "graph-projection"
	projectTimeout = 10 * time.Second
)

// GraphProjectionHandler consomme engagement.follow.* et projette les
// arêtes dans le graphe.
type GraphProjectionHandler struct {
	js      jetstream.JetStream
	service ports.GraphProjectionService
}

func NewGraphProjectionHandler(js jetstream.JetStream, service ports.GraphProjectionService) *GraphProjectionHandler {
	return &GraphProjectionHandler{js: js, service: service}
}

// Start crée (ou met à jour) le consumer durable et commence la consommation.
// L'appelant stoppe avec ConsumeContext.Stop().
func (h *GraphProjectionHandler) Start(ctx context.Context) (jetstream.ConsumeContext, error) {
	cons, err := h.js.CreateOrUpdateConsumer(ctx, eventbroker.StreamName, jetstream.ConsumerConfig{
		Durable:       ConsumerName,
		FilterSubject: eventbroker.FollowSubjects,
		AckPolicy:     jetstream.AckExplicitPolicy,
		// Un seul message en vol : follow puis unfollow restent ordonnés.
		MaxAckPending: 1,
		MaxDeliver:    5,
	})
	if err != nil {
		return nil, fmt.Errorf("create consumer: %w", err)
	}
	return cons.Consume(h.Handle)
}

func (h *GraphProjectionHandler) Handle(msg jetstream.Msg) {
	// 1. Extraction du contexte de trace publié avec l'événement
	ctx := otel.GetTextMapPropagator().Extract(context.Background(), propagation.HeaderCarrier(msg.Headers()))
	ctx, span := otel.Tracer("engagement-service").Start(ctx, "project_follow_edge", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	evt, err := eventbroker.DecodeEvent(msg.Data())
	if err != nil {
		span.RecordError(err)
		slog.ErrorContext(ctx, "❌ Invalid event format", "subject", msg.Subject(), "error", err)
		_ = msg.Term() // message empoisonné : inutile de le rejouer
		return
	}

	ctx, cancel := context.WithTimeout(ctx, projectTimeout)
	defer cancel()

	if err := h.service.Project(ctx, evt); err != nil {
		span.RecordError(err)
		slog.ErrorContext(ctx, "❌ Graph projection failed", "type", evt.Type, "actor_id", evt.ActorID, "error", err)
		_ = msg.Nak()
		return
	}

	slog.DebugContext(ctx, "✅ Follow edge projected", "type", evt.Type, "actor_id", evt.ActorID, "target_id", evt.TargetUserID)
	_ = msg.Ack()
}
