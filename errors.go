package gap

import (
	"errors"
	"fmt"

	"github.com/finchsend/gap/status"
)

// ErrInvalidHandle indicates a bridge call on a handle that is not between
// its initialize and finalize. Programmer error; not recoverable.
var ErrInvalidHandle = errors.New("invalid or finalized handle")

// ErrReentrantPoll indicates a Poll call from inside an upcall. Programmer
// error; not recoverable.
var ErrReentrantPoll = errors.New("reentrant poll")

// ErrPathEscapesOutputDir indicates an accept path that would resolve
// outside the configured download directory.
var ErrPathEscapesOutputDir = errors.New("path escapes output directory")

// StateError is the typed failure carried by every status-coded bridge
// operation that did not succeed.
type StateError struct {
	Op     string
	Status status.Code
}

func (e *StateError) Error() string {
	return fmt.Sprintf("gap: %s: %s", e.Op, e.Status)
}

// Kind exposes the coarse taxonomy of the underlying status code.
func (e *StateError) Kind() status.Kind {
	return e.Status.Kind()
}

// translate converts a status-coded engine result into a typed error, nil
// on success.
func translate(op string, code status.Code) error {
	if code.OK() {
		return nil
	}
	return &StateError{Op: op, Status: code}
}

// translateID converts an id-returning engine result. Zero is the failure
// sentinel and surfaces as a state error.
func translateID(op string, id int32) (int32, error) {
	if id == 0 {
		return 0, &StateError{Op: op, Status: status.TransactionNotPermitted}
	}
	return id, nil
}
