package broadcast

import "errors"

// Domain errors returned by the engine and by Storage implementations.
// Check with errors.Is; storage errors are passed through unwrapped so the
// request layer can map them to transport-level responses.
var (
	// ErrStorageNil is returned when an engine is constructed without a storage backend.
	ErrStorageNil = errors.New("storage cannot be nil")
	// ErrInvalidID is returned when a broadcast identifier cannot be parsed.
	ErrInvalidID = errors.New("invalid broadcast id")
	// ErrInvalidInput is returned when a domain value is malformed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrExpiryInPast is returned when an expiry timestamp is not strictly in the future.
	ErrExpiryInPast = errors.New("expiry must be in the future")
	// ErrNotFound is returned when the referenced broadcast does not exist.
	ErrNotFound = errors.New("broadcast not found")
	// ErrForbidden is returned when the caller is authenticated but not the creator.
	ErrForbidden = errors.New("only the creator may perform this operation")
	// ErrUnauthenticated is returned when no caller identity was supplied.
	ErrUnauthenticated = errors.New("caller identity required")
	// ErrExpired is returned when the broadcast's deadline has passed.
	ErrExpired = errors.New("broadcast has expired")
	// ErrAlreadyRequested is returned when the caller already has a join request
	// on the broadcast, regardless of its decision state.
	ErrAlreadyRequested = errors.New("join request already exists")
	// ErrRequestNotFound is returned when the referenced join request does not exist.
	ErrRequestNotFound = errors.New("join request not found")
	// ErrAlreadyDecided is returned when re-deciding a join request while
	// re-decision is disabled.
	ErrAlreadyDecided = errors.New("join request already decided")
)
