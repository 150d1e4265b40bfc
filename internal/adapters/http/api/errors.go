package api

import (
	"errors"
	"fmt"
	"net/http"

	eventqueue "github.com/abakedjoetato/luxqueue/internal/adapters/mq/queue"
	"github.com/abakedjoetato/luxqueue/internal/adapters/repository"
	service "github.com/abakedjoetato/luxqueue/internal/app"
	"github.com/abakedjoetato/luxqueue/internal/engine"
	"github.com/abakedjoetato/luxqueue/internal/refresh"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
)

// Wrap annotates err with the operation that produced it.
func Wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

// WrapKind annotates err with an operation and a sentinel kind, keeping both
// visible to errors.Is.
func WrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// NewKind returns the sentinel kind annotated with the operation name.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// statusFor maps domain sentinels onto HTTP status codes and the stable
// machine-readable codes clients switch on. Anything unrecognized is a 500.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrHandleNotObserved):
		return http.StatusNotFound, "handle_not_observed"
	case errors.Is(err, refresh.ErrUnknownSurface):
		return http.StatusNotFound, "unknown_surface"
	case errors.Is(err, repository.ErrDuplicateActiveSubmission):
		return http.StatusConflict, "duplicate_submission"
	case errors.Is(err, service.ErrSubmissionsClosed):
		return http.StatusConflict, "submissions_closed"
	case errors.Is(err, repository.ErrAlreadyLinked):
		return http.StatusConflict, "already_linked"
	case errors.Is(err, engine.ErrSessionOpen):
		return http.StatusConflict, "session_open"
	case errors.Is(err, engine.ErrNoOpenSession):
		return http.StatusConflict, "no_open_session"
	case errors.Is(err, eventqueue.ErrFull), errors.Is(err, eventqueue.ErrClosed):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, repository.ErrInvalidPage), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
