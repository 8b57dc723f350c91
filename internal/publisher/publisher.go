// Package publisher pushes read-model snapshots to downstream consumers over
// the message bus. Every message carries the full current event list for a
// match; consumers replace state rather than merge deltas.
package publisher

import (
	"context"

	"github.com/pitchside/streaming/internal/domain"
)

// Message types carried in the message_type header.
const (
	MessageTypeUpdate = "update"
	MessageTypeStop   = "stop"
)

// Publisher delivers one match snapshot per call. A "stop" message signals
// that no further updates will follow for the match.
type Publisher interface {
	Publish(ctx context.Context, matchID, messageType string, rows []domain.ProjectionRow) error
}
