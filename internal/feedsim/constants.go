package feedsim

import "time"

// HTTP status code constants.
const (
	StatusOK              = 200
	StatusCreated         = 201
	StatusAccepted        = 202
	StatusConflict        = 409
	StatusTooManyRequests = 429
	StatusServerError     = 500
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Retry configuration for HTTP requests.
const (
	retryAttempts  = 5
	retryBaseDelay = 200 * time.Millisecond
	retryMaxDelay  = 5 * time.Second
	retryMaxJitter = 250 * time.Millisecond
)

// Runner configuration constants.
const (
	// SessionSettleDelay gives the ingest pump time to apply connect and
	// join events before the steps that depend on them.
	SessionSettleDelay = 1 * time.Second
	// ProcessingDrainDelay gives the pump time to drain the full event
	// stream before the queues are read back.
	ProcessingDrainDelay = 3 * time.Second
	PercentageMultiplier = 100
)
