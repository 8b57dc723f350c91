package publisher

import (
	"context"
	"sync"

	"github.com/pitchside/streaming/internal/domain"
)

// Captured is one recorded publish call.
type Captured struct {
	MatchID     string
	MessageType string
	Rows        []domain.ProjectionRow
}

// Memory is a Publisher that records messages in order. Used in tests and by
// the replay harness's dry-run mode.
type Memory struct {
	mu       sync.Mutex
	messages []Captured
	fail     error
}

// NewMemory returns an empty capture publisher.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Publish(_ context.Context, matchID, messageType string, rows []domain.ProjectionRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	copied := make([]domain.ProjectionRow, len(rows))
	copy(copied, rows)
	m.messages = append(m.messages, Captured{MatchID: matchID, MessageType: messageType, Rows: copied})
	return nil
}

// Messages returns the publishes recorded so far.
func (m *Memory) Messages() []Captured {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Captured, len(m.messages))
	copy(out, m.messages)
	return out
}

// FailWith makes subsequent publishes return err; nil restores success.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}
