package referenceframe

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"go.viam.com/kinetree/arena"
)

var (
	// ErrParameterOutOfDomain is matched by a JointError for a value outside the joint's limits.
	ErrParameterOutOfDomain = errors.New("parameter out of domain")
	// ErrMissingParameter is matched by a JointError for a joint that needs a parameter and has no default.
	ErrMissingParameter = errors.New("missing parameter")
	// ErrParameterKindMismatch is matched by a JointError for a parameter the joint cannot interpret.
	ErrParameterKindMismatch = errors.New("parameter kind mismatch")
)

// JointErrorKind classifies per-node evaluation failures.
type JointErrorKind int

// The kinds of JointError.
const (
	ParameterOutOfDomain JointErrorKind = iota
	MissingParameter
	ParameterKindMismatch
)

func (k JointErrorKind) sentinel() error {
	switch k {
	case ParameterOutOfDomain:
		return ErrParameterOutOfDomain
	case MissingParameter:
		return ErrMissingParameter
	case ParameterKindMismatch:
		return ErrParameterKindMismatch
	default:
		return errors.Errorf("joint error kind %d", int(k))
	}
}

func (k JointErrorKind) String() string {
	return k.sentinel().Error()
}

// JointError is an evaluation failure of a single node. Joints create it without a location; the
// evaluation driver attaches the node identifier and bone name with At.
type JointError struct {
	Kind  JointErrorKind
	Node  arena.NodeID
	Bone  string
	Value Parameter
	Limit Limit
}

// NewOutOfDomainError returns an error for value falling outside limit.
func NewOutOfDomainError(value Parameter, limit Limit) *JointError {
	return &JointError{Kind: ParameterOutOfDomain, Node: arena.NoNode, Value: value, Limit: limit}
}

// NewMissingParameterError returns an error for a joint evaluated without a parameter.
func NewMissingParameterError() *JointError {
	return &JointError{Kind: MissingParameter, Node: arena.NoNode}
}

// NewKindMismatchError returns an error for a parameter the joint does not accept.
func NewKindMismatchError(value Parameter) *JointError {
	return &JointError{Kind: ParameterKindMismatch, Node: arena.NoNode, Value: value}
}

// At returns a copy of e located at the given node.
func (e *JointError) At(id arena.NodeID, bone string) *JointError {
	located := *e
	located.Node = id
	located.Bone = bone
	return &located
}

func (e *JointError) Error() string {
	var where []string
	if e.Bone != "" {
		where = append(where, fmt.Sprintf("bone %q", e.Bone))
	}
	if e.Node != arena.NoNode {
		where = append(where, fmt.Sprintf("(node %d)", e.Node))
	}
	var b strings.Builder
	if len(where) > 0 {
		b.WriteString(strings.Join(where, " "))
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	switch e.Kind {
	case ParameterOutOfDomain:
		fmt.Fprintf(&b, ": %v not in %v", e.Value, e.Limit)
	case ParameterKindMismatch:
		fmt.Fprintf(&b, ": %T", e.Value)
	case MissingParameter:
	}
	return b.String()
}

// Unwrap returns the sentinel of the error's kind.
func (e *JointError) Unwrap() error {
	return e.Kind.sentinel()
}

// AsJointError returns the JointError wrapped in err, if any.
func AsJointError(err error) (*JointError, bool) {
	var jErr *JointError
	if errors.As(err, &jErr) {
		return jErr, true
	}
	return nil, false
}

// NewZeroAxisError is returned when a joint is built around a zero length axis.
func NewZeroAxisError(kind JointKind) error {
	return errors.Errorf("cannot use zero vector as %s axis", kind)
}
