package channels

import (
	"context"
	"time"

	"hisho/pkg/protocol"
)

// ChannelAdapter defines the interface for all channel implementations
type ChannelAdapter interface {
	// ID returns the unique identifier for this adapter
	ID() string

	// Type returns the adapter type (e.g., "telegram")
	Type() string

	// Start initializes and starts the adapter
	Start(ctx context.Context) error

	// Stop gracefully shuts down the adapter
	Stop() error

	// SendMessage sends an outgoing message through this channel
	SendMessage(msg *protocol.OutgoingMessage) error

	// MaxMessageLen returns the platform's per-message length limit.
	// Replies longer than this must be chunked before sending.
	MaxMessageLen() int

	// ReceiveMessages returns a channel for incoming messages
	ReceiveMessages() <-chan *protocol.IncomingMessage

	// Status returns the current adapter status
	Status() ChannelStatus

	// IsHealthy returns whether the adapter is functioning properly
	IsHealthy() bool
}

// ChannelStatus represents the current status of a channel adapter
type ChannelStatus struct {
	Status    StatusCode             `json:"status"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// StatusCode represents the various states an adapter can be in
type StatusCode string

const (
	StatusInitializing StatusCode = "initializing"
	StatusOnline       StatusCode = "online"
	StatusOffline      StatusCode = "offline"
	StatusError        StatusCode = "error"
)

// TypingIndicator is an optional interface for adapters that support typing
// indicators
type TypingIndicator interface {
	SendTypingIndicator(userID string) error
}
