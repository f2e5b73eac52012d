package document

import (
	"errors"
	"fmt"
)

// Sentinel errors for matching with errors.Is.
var (
	ErrLayerNotFound  = errors.New("layer not found")
	ErrInvalidIndex   = errors.New("invalid layer index")
	ErrNoOutputNode   = errors.New("layer has no output node")
	ErrNoUndo         = errors.New("no undo steps available")
	ErrNoRedo         = errors.New("no redo steps available")
	ErrNilCommand     = errors.New("command cannot be nil")
	ErrNilLayer       = errors.New("layer cannot be nil")
	ErrDuplicateLayer = errors.New("layer already present in document")
	ErrBadLayerOrder  = errors.New("layer_order is not a permutation of the layer set")
)

// LayerNotFoundError reports a lookup for an id the document does not contain.
type LayerNotFoundError struct {
	ID LayerID
}

func (e *LayerNotFoundError) Error() string {
	return fmt.Sprintf("layer not found: %s", e.ID)
}

func (e *LayerNotFoundError) Unwrap() error { return ErrLayerNotFound }
