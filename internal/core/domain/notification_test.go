package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitNotification_SuppressesSelfNotification(t *testing.T) {
	for _, typ := range []NotificationType{NotificationLike, NotificationComment, NotificationFollow} {
		_, ok := EmitNotification(EngagementEvent{Type: typ, ActorID: "u1", RecipientID: "u1", PostID: "p1"}, "n1", time.Now())
		assert.False(t, ok, "type %s should be suppressed for self action", typ)
	}
}

func TestEmitNotification_BuildsInsertWrite(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	w, ok := EmitNotification(EngagementEvent{
		Type:        NotificationComment,
		ActorID:     "bob",
		RecipientID: "alice",
		PostID:      "p1",
		CommentID:   "c1",
	}, "n1", now)
	require.True(t, ok)

	insert, isInsert := w.(InsertNotification)
	require.True(t, isInsert, "expected InsertNotification, got %T", w)
	assert.Equal(t, Notification{
		ID:          "n1",
		Type:        NotificationComment,
		RecipientID: "alice",
		ActorID:     "bob",
		PostID:      "p1",
		CommentID:   "c1",
		CreatedAt:   now,
	}, insert.Notification)
}

func TestEmitNotification_RequiresBothParties(t *testing.T) {
	_, ok := EmitNotification(EngagementEvent{Type: NotificationFollow, ActorID: "bob"}, "n1", time.Now())
	assert.False(t, ok)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{nil, ""},
		{ErrUnauthenticated, KindUnauthenticated},
		{fmt.Errorf("get post: %w", ErrPostNotFound), KindNotFound},
		{ErrUserNotFound, KindNotFound},
		{ErrNotYourPost, KindUnauthorized},
		{ErrEmptyComment, KindInvalidInput},
		{ErrSelfFollow, KindInvalidInput},
		{fmt.Errorf("insert like: %w", ErrConflict), KindConstraintViolation},
		{ErrStoreUnavailable, KindStoreUnavailable},
		{fmt.Errorf("boom"), KindInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.err), "KindOf(%v)", tt.err)
	}
}

func TestResult(t *testing.T) {
	ok := Ok(true)
	assert.True(t, ok.Success)
	assert.Empty(t, ok.ErrorMessage())
	assert.False(t, ok.Unauthenticated())

	noop := Fail[bool](KindUnauthenticated, "unauthenticated")
	assert.False(t, noop.Success)
	assert.True(t, noop.Unauthenticated())
	assert.Equal(t, "unauthenticated", noop.ErrorMessage())
}

func TestContentFactories(t *testing.T) {
	now := time.Now()

	_, err := NewComment("c1", "p1", "u1", "  \t\n", now)
	assert.ErrorIs(t, err, ErrEmptyComment)

	c, err := NewComment("c1", "p1", "u1", "  nice post ", now)
	require.NoError(t, err)
	assert.Equal(t, "nice post", c.Content)

	_, err = NewPost("p1", "u1", " ", "", now)
	assert.ErrorIs(t, err, ErrEmptyPost)

	p, err := NewPost("p1", "u1", "", "https://img/x.png", now)
	require.NoError(t, err)
	assert.Equal(t, "https://img/x.png", p.Image)

	_, err = NewFollow("u1", "u1", now)
	assert.ErrorIs(t, err, ErrSelfFollow)
}
