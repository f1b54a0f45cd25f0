package ledger

import "fmt"

// ErrRejected is a terminal refusal from the token node: the transaction was
// understood and declined. Retrying the same call cannot succeed.
type ErrRejected struct {
	Method string
	Code   int
	Reason string
}

func (e ErrRejected) Error() string {
	return fmt.Sprintf("ledger rejected %s (code %d): %s", e.Method, e.Code, e.Reason)
}

// ErrUnavailable covers transport failures and timeouts where the outcome on
// the node is unknown. Callers may retry, but must not assume the transaction
// did not land.
type ErrUnavailable struct {
	Method  string
	Timeout bool
	Err     error
}

func (e ErrUnavailable) Error() string {
	if e.Timeout {
		return fmt.Sprintf("ledger call %s timed out: %v", e.Method, e.Err)
	}
	return fmt.Sprintf("ledger unavailable for %s: %v", e.Method, e.Err)
}

func (e ErrUnavailable) Unwrap() error {
	return e.Err
}
