package chathub

import "errors"

var (
	// ErrAlreadyRegistered is returned when a connection id is registered twice.
	ErrAlreadyRegistered = errors.New("connection already registered")
	// ErrConnectionNotFound is returned for operations on an unknown connection.
	ErrConnectionNotFound = errors.New("connection not found")
	// ErrRoomNotFound is returned for operations that require an existing room.
	// Reads of unknown rooms stay informational and return empty snapshots.
	ErrRoomNotFound = errors.New("room not found")
	// ErrEmptyMessage marks a message whose content is empty after trimming.
	ErrEmptyMessage = errors.New("empty message content")
	// ErrUnknownEvent marks an inbound event name the router does not handle.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrInvalidHistoryKey marks an empty or malformed history key.
	ErrInvalidHistoryKey = errors.New("invalid history key")
)
