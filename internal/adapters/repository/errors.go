package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound                  = errors.New("submission not found")
	ErrDuplicateActiveSubmission = errors.New("submitter already has an active submission")
	ErrEmpty                     = errors.New("no dispatch-eligible submissions")
	ErrAlreadyLinked             = errors.New("handle linked to another submitter")
	ErrHandleNotObserved         = errors.New("handle never observed on the feed")
	ErrInvalidPage               = errors.New("invalid page request")
)
