package model

import "fmt"

// ValidationError indicates a required field is missing or malformed.
// Recoverable by the caller; never dropped silently.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError indicates the job id is unknown to the local snapshot.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("job %s not found", e.ID)
}

// TransportError indicates the upstream job API was unreachable.
// The last good snapshot is kept; the caller decides whether to retry.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("job api %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RemoteRejectedError carries a non-2xx response from the upstream job API.
// The server message is surfaced verbatim.
type RemoteRejectedError struct {
	StatusCode int
	Message    string
}

func (e *RemoteRejectedError) Error() string {
	return fmt.Sprintf("job api rejected request (status %d): %s", e.StatusCode, e.Message)
}

// InvalidTransitionError indicates a lifecycle status change that the
// state machine forbids. The snapshot is never touched on rejection.
type InvalidTransitionError struct {
	From   JobStatus
	To     JobStatus
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid transition %s → %s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("invalid transition %s → %s", e.From, e.To)
}

// InvalidStepError indicates an out-of-order contractor progress request.
type InvalidStepError struct {
	Current   int
	Requested int
	Reason    string
}

func (e *InvalidStepError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid step %d → %d: %s", e.Current, e.Requested, e.Reason)
	}
	return fmt.Sprintf("invalid step %d → %d", e.Current, e.Requested)
}
