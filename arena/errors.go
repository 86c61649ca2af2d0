package arena

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotEmpty is matched by a TreeError returned when adding a second root.
	ErrNotEmpty = errors.New("tree already has a root")
	// ErrUnknownParent is matched by a TreeError returned when attaching to a node that does not exist.
	ErrUnknownParent = errors.New("unknown parent")
	// ErrUnknownNode is matched by a TreeError returned when looking up a node that does not exist.
	ErrUnknownNode = errors.New("unknown node")
	// ErrEmpty is matched by a TreeError returned when asking an empty tree for its root.
	ErrEmpty = errors.New("tree is empty")
)

// TreeErrorKind classifies structural violations.
type TreeErrorKind int

// The kinds of TreeError.
const (
	NotEmpty TreeErrorKind = iota
	UnknownParent
	UnknownNode
	Empty
)

func (k TreeErrorKind) sentinel() error {
	switch k {
	case NotEmpty:
		return ErrNotEmpty
	case UnknownParent:
		return ErrUnknownParent
	case UnknownNode:
		return ErrUnknownNode
	case Empty:
		return ErrEmpty
	default:
		return errors.Errorf("tree error kind %d", int(k))
	}
}

func (k TreeErrorKind) String() string {
	return k.sentinel().Error()
}

// TreeError is a structural violation: an unknown node or parent identifier, or a second root.
type TreeError struct {
	Kind TreeErrorKind
	ID   NodeID
}

func (e *TreeError) Error() string {
	switch e.Kind {
	case NotEmpty, Empty:
		return e.Kind.String()
	case UnknownParent, UnknownNode:
		return fmt.Sprintf("%s: %d", e.Kind, e.ID)
	default:
		return fmt.Sprintf("%s: %d", e.Kind, e.ID)
	}
}

// Unwrap returns the sentinel of the error's kind so errors.Is(err, ErrUnknownNode) works.
func (e *TreeError) Unwrap() error {
	return e.Kind.sentinel()
}

// NewUnknownNodeError returns a TreeError for an identifier which does not refer to a live node.
func NewUnknownNodeError(id NodeID) error {
	return &TreeError{Kind: UnknownNode, ID: id}
}

// NewUnknownParentError returns a TreeError for a parent identifier which does not refer to a live node.
func NewUnknownParentError(id NodeID) error {
	return &TreeError{Kind: UnknownParent, ID: id}
}
