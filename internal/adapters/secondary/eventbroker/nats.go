package eventbroker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/ports"
)

const (
	StreamName     = "ENGAGEMENT"
	SubjectPattern = "engagement.>" // Tous les events engagement.*
	FollowSubjects = "engagement.follow.>"

	// InvalidateSubject est du NATS "core" : fire-and-forget, pas de persistance.
	InvalidateSubject = "cache.invalidate"
)

var (
	_ ports.EventPublisher   = (*NatsBroker)(nil)
	_ ports.CacheInvalidator = (*NatsBroker)(nil)
)

type NatsBroker struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// NewNatsBroker s'assure que le Stream existe (idempotent).
func NewNatsBroker(ctx context.Context, nc *nats.Conn) (*NatsBroker, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{SubjectPattern},
		Storage:  jetstream.FileStorage,
		Replicas: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create stream: %w", err)
	}

	return &NatsBroker{nc: nc, js: js}, nil
}

// JetStream expose le contexte JetStream aux consumers (adapters primaires).
func (b *NatsBroker) JetStream() jetstream.JetStream {
	return b.js
}

// EngagementEvent est le contrat JSON publié sur engagement.*
type EngagementEvent struct {
	Type         string    `json:"type"`
	ActorID      string    `json:"actor_id"`
	TargetUserID string    `json:"target_user_id,omitempty"`
	PostID       string    `json:"post_id,omitempty"`
	CommentID    string    `json:"comment_id,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// InvalidateMessage est publié sur cache.invalidate pour la couche de rendu.
type InvalidateMessage struct {
	Paths []string  `json:"paths"`
	At    time.Time `json:"at"`
}

func (b *NatsBroker) Publish(ctx context.Context, evt domain.Event) error {
	data, err := json.Marshal(EngagementEvent{
		Type:         string(evt.Type),
		ActorID:      evt.ActorID,
		TargetUserID: evt.TargetUserID,
		PostID:       evt.PostID,
		CommentID:    evt.CommentID,
		OccurredAt:   evt.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	// Le sujet EST le type : engagement.like.created, engagement.follow.deleted...
	msg := &nats.Msg{
		Subject: string(evt.Type),
		Data:    data,
		Header:  nats.Header{},
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	ack, err := b.js.PublishMsg(ctx, msg)
	if err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	slog.DebugContext(ctx, "📢 Event published", "subject", msg.Subject, "seq", ack.Sequence)
	return nil
}

func (b *NatsBroker) Invalidate(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	data, err := json.Marshal(InvalidateMessage{Paths: paths, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal invalidation: %w", err)
	}

	msg := &nats.Msg{
		Subject: InvalidateSubject,
		Data:    data,
		Header:  nats.Header{},
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))
	return b.nc.PublishMsg(msg)
}

// DecodeEvent relit un message engagement.* vers le domaine.
func DecodeEvent(data []byte) (domain.Event, error) {
	var e EngagementEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return domain.Event{}, fmt.Errorf("invalid event format: %w", err)
	}
	return domain.Event{
		Type:         domain.EventType(e.Type),
		ActorID:      e.ActorID,
		TargetUserID: e.TargetUserID,
		PostID:       e.PostID,
		CommentID:    e.CommentID,
		OccurredAt:   e.OccurredAt,
	}, nil
}
