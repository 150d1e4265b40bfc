package service

import "errors"

// ErrSubmissionsClosed is returned by Submit while the submissions toggle is
// off. Reviewer-side operations are unaffected by the toggle.
var ErrSubmissionsClosed = errors.New("submissions are closed")
