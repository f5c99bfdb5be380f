package zvt

import (
	"errors"
	"fmt"
)

// ErrInvalidPassword is returned when a Password exceeds MaxPassword.
var ErrInvalidPassword = errors.New("zvt: password must be in range [0, 999999]")

func errInvalidPassword(p uint32) error {
	return fmt.Errorf("%w: got %d", ErrInvalidPassword, p)
}

// ErrBusy is returned, together with an Error("Busy") response, by every
// command method when another command is already in-flight — the wire protocol has no logical session id, so the PT
// multiplexes exactly one command at a time.
var ErrBusy = errors.New("zvt: busy, a command is already in-flight")

// ErrCancelled names caller cancellation. The command methods do not
// return it: a context cancelled before the command reaches a terminal
// reply yields a CommandResponse with StateError and ErrorMessage
// "Cancelled" and a nil error. No Abort is sent on the wire; the caller
// may follow up with ZvtClient.Abort.
var ErrCancelled = errors.New("zvt: command cancelled by caller")

// ErrUnknownControlField is logged (not returned) when an inbound
// package's control field matches no known reply type. It is exported so
// tests and callers inspecting log records can recognize the condition.
var ErrUnknownControlField = errors.New("zvt: unknown control field")

// State is the terminal disposition of a command call.
type State int

const (
	// StateUnknown is the zero value; never returned from a completed call.
	StateUnknown State = iota
	// StateSuccessful means the PT reported Completion (06 0F).
	StateSuccessful
	// StateAbort means the PT reported Abort (06 1E).
	StateAbort
	// StateNotSupported means the link layer rejected the command as
	// unsupported.
	StateNotSupported
	// StateTimeout means no terminal reply arrived within the configured
	// command-completion timeout.
	StateTimeout
	// StateError covers transport failures, a link-layer outcome other
	// than AcknowledgeReceived, busy rejection, and caller cancellation;
	// ErrorMessage carries the reason. Encoding failures (an out-of-range
	// amount, password or receipt number) are not reported this way: the
	// command method returns them as a Go error with a zero
	// CommandResponse.
	StateError
)

func (s State) String() string {
	switch s {
	case StateSuccessful:
		return "Successful"
	case StateAbort:
		return "Abort"
	case StateNotSupported:
		return "NotSupported"
	case StateTimeout:
		return "Timeout"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// CommandResponse is the terminal outcome of one command call.
type CommandResponse struct {
	State        State
	ErrorMessage string
}

func (r CommandResponse) Error() string {
	if r.ErrorMessage == "" {
		return r.State.String()
	}
	return fmt.Sprintf("%s: %s", r.State, r.ErrorMessage)
}

// IsSuccessful reports whether the command completed successfully.
func (r CommandResponse) IsSuccessful() bool {
	return r.State == StateSuccessful
}

func successResponse() CommandResponse {
	return CommandResponse{State: StateSuccessful}
}

func errorResponse(reason string) CommandResponse {
	return CommandResponse{State: StateError, ErrorMessage: reason}
}

func abortResponse(msg string) CommandResponse {
	return CommandResponse{State: StateAbort, ErrorMessage: msg}
}

func notSupportedResponse() CommandResponse {
	return CommandResponse{State: StateNotSupported}
}

func timeoutResponse() CommandResponse {
	return CommandResponse{State: StateTimeout}
}
