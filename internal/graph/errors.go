package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for matching with errors.Is.
var (
	ErrNodeNotFound     = errors.New("node not found")
	ErrCycleDetected    = errors.New("cycle detected")
	ErrMissingInput     = errors.New("missing required input")
	ErrInvalidInput     = errors.New("input artifact has the wrong type")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrUnknownType      = errors.New("no factory registered for node type")
	ErrNilCapability    = errors.New("node capability is nil")
	ErrNilNode          = errors.New("node cannot be nil")
	ErrDuplicateNode    = errors.New("node already present in graph")
	ErrDepthExceeded    = errors.New("evaluation depth limit exceeded")
)

// NodeNotFoundError reports a lookup for an id the graph does not contain.
type NodeNotFoundError struct {
	ID NodeID
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("node not found: %s", e.ID)
}

func (e *NodeNotFoundError) Unwrap() error { return ErrNodeNotFound }

// CycleError reports a Connect call that would make the graph cyclic.
// The graph is left unchanged when this error is returned.
type CycleError struct {
	From NodeID
	To   NodeID
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: connecting %s -> %s would close a loop", e.From, e.To)
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }

// UnknownTypeError reports a create request for an unregistered type name.
// Registered holds every currently registered type name, sorted.
type UnknownTypeError struct {
	TypeName   string
	Registered []string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("no factory registered for node type %q (registered: %s)",
		e.TypeName, strings.Join(e.Registered, ", "))
}

func (e *UnknownTypeError) Unwrap() error { return ErrUnknownType }

// InputTypeError reports a capability receiving an artifact of the wrong type.
type InputTypeError struct {
	Input string
	Want  string
	Got   string
}

func (e *InputTypeError) Error() string {
	return fmt.Sprintf("input %q: want %s, got %s", e.Input, e.Want, e.Got)
}

func (e *InputTypeError) Unwrap() error { return ErrInvalidInput }
