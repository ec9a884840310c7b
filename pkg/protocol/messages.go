// Package protocol defines the message types exchanged between channel
// adapters and the dispatcher.
package protocol

import "time"

// IncomingMessage represents a message received from a channel
type IncomingMessage struct {
	ID        string            `json:"id"`
	ChannelID string            `json:"channel_id"`
	UserID    string            `json:"user_id"`
	Text      string            `json:"text"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// OutgoingMessage represents a message to be sent through a channel
type OutgoingMessage struct {
	ChannelID string            `json:"channel_id"`
	UserID    string            `json:"user_id"`
	Text      string            `json:"text"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
