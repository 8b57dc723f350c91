package replay

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pitchside/streaming/internal/domain"
	"github.com/pitchside/streaming/internal/eventstore"
	"github.com/pitchside/streaming/internal/publisher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func addedAt(matchID string, feedEventID int64, occurredOn time.Time) domain.DomainEvent {
	return domain.DomainEvent{
		DomainEventID: uuid.New(),
		AggregateID:   matchID,
		Kind:          domain.KindGlobalEventAdded,
		OccurredOn:    occurredOn,
		Added: &domain.GlobalEventAdded{MatchEvent: domain.MatchEvent{
			FeedEventID:  feedEventID,
			LocalEventID: int32(feedEventID),
			TypeID:       1,
			PeriodID:     1,
		}},
	}
}

func seedStore(t *testing.T, matchID string, events []domain.DomainEvent) *eventstore.FileStore {
	t.Helper()
	store, err := eventstore.NewFileStore(filepath.Join(t.TempDir(), "events.json"))
	require.NoError(t, err)
	require.NoError(t, store.Append(context.Background(), matchID, events))
	return store
}

func TestReplayPublishesGrowingSnapshots(t *testing.T) {
	start := time.Date(2024, 8, 17, 14, 0, 0, 0, time.UTC)
	events := []domain.DomainEvent{
		addedAt("match-1", 1, start),
		addedAt("match-1", 2, start.Add(20*time.Second)),
		addedAt("match-1", 3, start.Add(50*time.Second)),
	}
	store := seedStore(t, "match-1", events)
	bus := publisher.NewMemory()

	r := New(store, bus, 500, 30*time.Second, testLogger())
	r.sleep = func(context.Context, time.Duration) error { return nil }

	require.NoError(t, r.Run(context.Background(), "match-1"))

	msgs := bus.Messages()
	require.Len(t, msgs, 2)

	// First push covers virtual [start, start+30s]: events 1 and 2.
	assert.Equal(t, publisher.MessageTypeUpdate, msgs[0].MessageType)
	require.Len(t, msgs[0].Rows, 2)
	assert.Equal(t, int64(1), msgs[0].Rows[0].FeedEventID)
	assert.Equal(t, int64(2), msgs[0].Rows[1].FeedEventID)

	// Final push drains the log and is marked stop.
	assert.Equal(t, publisher.MessageTypeStop, msgs[1].MessageType)
	assert.Len(t, msgs[1].Rows, 3)
}

func TestReplayFlushesLateEventsAfterCutoff(t *testing.T) {
	start := time.Date(2024, 8, 17, 14, 0, 0, 0, time.UTC)
	events := []domain.DomainEvent{
		addedAt("match-1", 1, start),
		// A correction recorded a day after the match.
		addedAt("match-1", 2, start.Add(24*time.Hour)),
	}
	store := seedStore(t, "match-1", events)
	bus := publisher.NewMemory()

	r := New(store, bus, 500, 30*time.Minute, testLogger())
	r.sleep = func(context.Context, time.Duration) error { return nil }

	require.NoError(t, r.Run(context.Background(), "match-1"))

	msgs := bus.Messages()
	require.NotEmpty(t, msgs)
	last := msgs[len(msgs)-1]
	assert.Equal(t, publisher.MessageTypeStop, last.MessageType)
	assert.Len(t, last.Rows, 2)

	// The run pushed at most cutoff/interval + 1 batches, not one per day.
	assert.LessOrEqual(t, len(msgs), 5)
}

func TestReplaySleepScalesWithSpeed(t *testing.T) {
	start := time.Date(2024, 8, 17, 14, 0, 0, 0, time.UTC)
	store := seedStore(t, "match-1", []domain.DomainEvent{addedAt("match-1", 1, start)})

	var slept []time.Duration
	r := New(store, publisher.NewMemory(), 500, 30*time.Second, testLogger())
	r.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	require.NoError(t, r.Run(context.Background(), "match-1"))

	require.NotEmpty(t, slept)
	assert.Equal(t, 60*time.Millisecond, slept[0])
}

func TestReplayRejectsBadInput(t *testing.T) {
	store := seedStore(t, "match-1", []domain.DomainEvent{
		addedAt("match-1", 1, time.Now().UTC()),
	})
	bus := publisher.NewMemory()

	r := New(store, bus, 0, 30*time.Second, testLogger())
	assert.Error(t, r.Run(context.Background(), "match-1"))

	r = New(store, bus, 500, 30*time.Second, testLogger())
	r.sleep = func(context.Context, time.Duration) error { return nil }
	assert.Error(t, r.Run(context.Background(), "no-such-match"))
}
