package eventstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/pitchside/streaming/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addedEvent(matchID string, feedEventID int64, typeID int) domain.DomainEvent {
	return domain.NewGlobalEventAdded(matchID, domain.MatchEvent{
		FeedEventID:  feedEventID,
		LocalEventID: int32(feedEventID),
		TypeID:       typeID,
		PeriodID:     1,
	})
}

// newMatchID keeps contract runs isolated so the suite can share a database.
func newMatchID() string {
	return "match-" + uuid.NewString()
}

// runStoreContract exercises the Store behavior every implementation must
// provide. Each subtest gets a fresh store and its own aggregates.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("append load round trip", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		matchID := newMatchID()

		first := addedEvent(matchID, 101, 32)
		second := domain.NewEventEdited(matchID, 101,
			map[string]any{"outcome": 1}, map[string]any{"outcome": nil})
		require.NoError(t, store.Append(ctx, matchID, []domain.DomainEvent{first, second}))

		events, err := store.Load(ctx, matchID)
		require.NoError(t, err)
		require.Len(t, events, 2)

		assert.Equal(t, domain.KindGlobalEventAdded, events[0].Kind)
		assert.Equal(t, first.DomainEventID, events[0].DomainEventID)
		assert.Equal(t, int64(101), events[0].Added.FeedEventID)
		assert.Equal(t, 32, events[0].Added.TypeID)

		assert.Equal(t, domain.KindEventEdited, events[1].Kind)
		assert.Equal(t, int64(101), events[1].Edited.FeedEventID)
		// JSON round-trips numbers as float64; field coercion happens downstream.
		assert.Equal(t, float64(1), events[1].Edited.Changed["outcome"])
	})

	t.Run("preserves append order", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		matchID := newMatchID()

		var want []int64
		for i := int64(1); i <= 5; i++ {
			require.NoError(t, store.Append(ctx, matchID, []domain.DomainEvent{addedEvent(matchID, i, 1)}))
			want = append(want, i)
		}

		events, err := store.Load(ctx, matchID)
		require.NoError(t, err)

		var got []int64
		for _, evt := range events {
			got = append(got, evt.Added.FeedEventID)
		}
		assert.Equal(t, want, got)
	})

	t.Run("isolates aggregates", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		matchA, matchB := newMatchID(), newMatchID()

		require.NoError(t, store.Append(ctx, matchA, []domain.DomainEvent{addedEvent(matchA, 1, 1)}))
		require.NoError(t, store.Append(ctx, matchB, []domain.DomainEvent{addedEvent(matchB, 2, 1)}))

		events, err := store.Load(ctx, matchA)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, int64(1), events[0].Added.FeedEventID)
	})

	t.Run("load unknown match is empty", func(t *testing.T) {
		store := newStore(t)

		events, err := store.Load(context.Background(), newMatchID())
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		matchID := newMatchID()

		require.NoError(t, store.Append(ctx, matchID, []domain.DomainEvent{addedEvent(matchID, 1, 1)}))
		require.NoError(t, store.Delete(ctx, matchID))
		require.NoError(t, store.Delete(ctx, matchID))

		events, err := store.Load(ctx, matchID)
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("append empty batch is noop", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		matchID := newMatchID()

		require.NoError(t, store.Append(ctx, matchID, nil))

		events, err := store.Load(ctx, matchID)
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}

func TestFileStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		store, err := NewFileStore(filepath.Join(t.TempDir(), "events.json"))
		require.NoError(t, err)
		return store
	})
}

func TestFileStoreReopenSeesPersistedLog(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)

	first := addedEvent("match-1", 101, 32)
	require.NoError(t, store.Append(ctx, "match-1", []domain.DomainEvent{first}))

	// A fresh store over the same file sees the persisted log.
	reopened, err := NewFileStore(path)
	require.NoError(t, err)

	events, err := reopened.Load(ctx, "match-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, first.DomainEventID, events[0].DomainEventID)
}
