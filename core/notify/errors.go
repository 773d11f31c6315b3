package notify

import "errors"

var (
	// ErrStorageNil is returned when a component is constructed without storage.
	ErrStorageNil = errors.New("storage cannot be nil")
	// ErrSourceNil is returned when a worker is constructed without a broadcast source.
	ErrSourceNil = errors.New("broadcast source cannot be nil")
	// ErrDispatcherNil is returned when a worker is constructed without a dispatcher.
	ErrDispatcherNil = errors.New("dispatcher cannot be nil")
	// ErrInvalidEvent is returned when an event misses one of its identifiers.
	ErrInvalidEvent = errors.New("event requires broadcast and requester ids")
	// ErrNoMessage is returned by Claim when no message is ready for delivery.
	ErrNoMessage = errors.New("no message to claim")
	// ErrMessageNotFound is returned when the referenced message does not exist.
	ErrMessageNotFound = errors.New("message not found")
	// ErrDirectoryNil is returned when an email dispatcher is constructed without a user directory.
	ErrDirectoryNil = errors.New("user directory cannot be nil")
	// ErrSenderNil is returned when an email dispatcher is constructed without a sender.
	ErrSenderNil = errors.New("email sender cannot be nil")
)
