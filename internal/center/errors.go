package center

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound       = errors.New("notification not found")
	ErrExpired        = errors.New("notification has expired")
	ErrUnknownAction  = errors.New("unknown action")
	ErrActionPending  = errors.New("an action is already running for this notification")
	ErrActionRejected = errors.New("action rejected by server")
	ErrNothingToRetry = errors.New("no failed operation to retry")
)

// OpError records a failed backend call and the ids it covered. The local
// mutation has already been rolled back when an OpError is returned.
type OpError struct {
	Op  string
	IDs []string
	Err error
}

func (e *OpError) Error() string {
	if len(e.IDs) == 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, strings.Join(e.IDs, ","), e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// IsOpError reports whether err is or wraps an OpError.
func IsOpError(err error) bool {
	var oe *OpError
	return errors.As(err, &oe)
}
