package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/adapters/secondary/memstore"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/ports"
)

var fixedNow = time.Date(2026, 2, 14, 8, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func sequentialIDs(prefix string) func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}

// --- FAKES ---

type recordingInvalidator struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (r *recordingInvalidator) Invalidate(_ context.Context, paths ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, paths)
	return r.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, evt domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return r.err
}

func (r *recordingPublisher) types() []domain.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// countingStore compte les écritures et peut forcer une erreur.
type countingStore struct {
	ports.RelationshipStore
	applies   atomic.Int64
	toggles   atomic.Int64
	reads     atomic.Int64
	toggleErr error
	applyErr  error
}

func (c *countingStore) Apply(ctx context.Context, writes ...domain.Write) error {
	c.applies.Add(1)
	if c.applyErr != nil {
		return c.applyErr
	}
	return c.RelationshipStore.Apply(ctx, writes...)
}

func (c *countingStore) Toggle(ctx context.Context, remove domain.Write, create ...domain.Write) (bool, error) {
	c.toggles.Add(1)
	if c.toggleErr != nil {
		return false, c.toggleErr
	}
	return c.RelationshipStore.Toggle(ctx, remove, create...)
}

func (c *countingStore) GetPost(ctx context.Context, postID string) (*domain.Post, error) {
	c.reads.Add(1)
	return c.RelationshipStore.GetPost(ctx, postID)
}

func (c *countingStore) writes() int64 { return c.applies.Load() + c.toggles.Load() }

type fakeGraph struct {
	suggestions []string
	err         error
	created     [][2]string
	deleted     [][2]string
}

func (g *fakeGraph) EnsureSchema(context.Context) error { return nil }

func (g *fakeGraph) CreateRelation(_ context.Context, actorID, targetID string) error {
	g.created = append(g.created, [2]string{actorID, targetID})
	return g.err
}

func (g *fakeGraph) DeleteRelation(_ context.Context, actorID, targetID string) error {
	g.deleted = append(g.deleted, [2]string{actorID, targetID})
	return g.err
}

func (g *fakeGraph) SuggestFollows(context.Context, string, int) ([]string, error) {
	return g.suggestions, g.err
}

type fakeVerifier struct {
	principal *domain.Principal
}

func (v fakeVerifier) Verify(token string) (*domain.Principal, error) {
	if token != "good-token" {
		return nil, errors.New("signature is invalid")
	}
	return v.principal, nil
}

// --- FIXTURE ---

type fixture struct {
	store       *memstore.Store
	counting    *countingStore
	invalidator *recordingInvalidator
	publisher   *recordingPublisher
	identity    *IdentityService
	engagement  *EngagementService
	feed        *FeedService
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	store := memstore.New()
	f := &fixture{
		store:       store,
		counting:    &countingStore{RelationshipStore: store},
		invalidator: &recordingInvalidator{},
		publisher:   &recordingPublisher{},
	}
	base := []Option{WithClock(fixedClock), WithIDGenerator(sequentialIDs("id"))}
	opts = append(base, opts...)
	f.identity = NewIdentityService(store, nil, opts...)
	f.engagement = NewEngagementService(f.counting, store, f.invalidator, f.publisher, opts...)
	f.feed = NewFeedService(store, store, nil)
	return f
}

// user crée un utilisateur local via le chemin d'identité réel.
func (f *fixture) user(t *testing.T, handle string) string {
	t.Helper()
	id, err := f.identity.ResolveLocalUser(context.Background(), &domain.Principal{
		ExternalID: "ext_" + handle,
		Emails:     []string{handle + "@example.com"},
		Handle:     handle,
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) post(t *testing.T, authorID, content string) string {
	t.Helper()
	res := f.engagement.CreatePost(context.Background(), authorID, content, "")
	require.True(t, res.Success, res.ErrorMessage())
	return res.Value.ID
}

func (f *fixture) notifications(t *testing.T, userID string) []domain.NotificationView {
	t.Helper()
	views, err := f.store.ListNotifications(context.Background(), userID, 0)
	require.NoError(t, err)
	return views
}

func (f *fixture) feedPost(t *testing.T, postID string) *domain.FeedPost {
	t.Helper()
	posts, err := f.store.ListFeed(context.Background(), "")
	require.NoError(t, err)
	for i := range posts {
		if posts[i].ID == postID {
			return &posts[i]
		}
	}
	return nil
}
