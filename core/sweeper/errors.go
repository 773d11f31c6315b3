package sweeper

import "errors"

var (
	// ErrStorageNil is returned when a sweeper is constructed without storage.
	ErrStorageNil = errors.New("storage cannot be nil")
	// ErrInvalidSchedule is returned when the cron expression cannot be parsed.
	ErrInvalidSchedule = errors.New("invalid sweep schedule")
)
