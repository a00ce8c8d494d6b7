package domain

import (
	"errors"
	"fmt"
)

// ErrContactNotFound is returned by contact stores when no contact matches a lookup.
var ErrContactNotFound = errors.New("contact not found")

// ErrActionNotFound is returned by tree loaders when no action tree exists for an id.
var ErrActionNotFound = errors.New("action not found")

// ErrInvalidLinkParameter is returned when an action link is malformed or its checksum does not match.
var ErrInvalidLinkParameter = errors.New("invalid link parameter")

// ErrActivityResultRequired is returned when an action type returns neither a result nor an error.
var ErrActivityResultRequired = errors.New("activity result required")

// ErrNilContext is returned when a run is started without an execution context.
var ErrNilContext = errors.New("execution context is required")

// ErrNilNode is returned when an execution context does not point at a node.
var ErrNilNode = errors.New("action node is required")

// ActionError wraps a failure raised by an action type implementation.
type ActionError struct {
	NodeID int32
	Type   string
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action %d (%s) failed: %v", e.NodeID, e.Type, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}
