package gateway

import (
	"errors"
	"fmt"
)

var (
	ErrRemoteUnavailable = errors.New("remote game server unavailable")
	ErrRemoteRejected    = errors.New("remote game server rejected the request")
	ErrContractViolation = errors.New("remote game server response violates contract")
)

// RemoteError describes a failed call to a game server. errors.Is matches
// it against Kind and against the underlying transport error.
type RemoteError struct {
	Kind       error
	GameID     string
	Method     string
	URL        string
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("%s %s %s: %v", e.GameID, e.Method, e.URL, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RemoteError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// outcome is the metrics label for err.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrRemoteUnavailable):
		return "unavailable"
	case errors.Is(err, ErrRemoteRejected):
		return "rejected"
	case errors.Is(err, ErrContractViolation):
		return "contract_violation"
	default:
		return "error"
	}
}
