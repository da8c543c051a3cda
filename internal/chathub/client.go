package chathub

import "lawchat/backend/internal/models"

// Client is the interface for any type of connection attached to the hub.
// It abstracts the underlying transport so the hub manages WebSocket clients
// and test doubles uniformly.
type Client interface {
	// GetID returns the unique connection id for this client.
	GetID() string

	// GetSendChannel returns the channel the hub writes outbound events to.
	// The hub never blocks on it: a full channel means the client is too
	// slow and gets evicted.
	GetSendChannel() chan<- models.Envelope

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts down the client's connection and send channel.
	Close()
}
