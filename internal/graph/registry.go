package graph

import (
	"fmt"
	"sort"
	"sync"

	"github.com/KaelanRichards/artemisia/internal/log"
)

// Factory constructs a capability instance from an opaque parameter value.
// Factories are registered against their type name and are how serialized
// documents reconstruct their nodes.
type Factory interface {
	TypeName() string
	Create(params Params) (Capability, error)
}

// ParameterValidator is an optional Factory extension. When implemented, the
// registry runs it before Create; a failure aborts construction. Factories
// that do not implement it accept every parameter value.
type ParameterValidator interface {
	ValidateParameters(params Params) error
}

// Registry maps type names to factories. It is an explicit instance passed
// into every create and deserialization call site; there is deliberately no
// package-level registry.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register stores the factory under its type name. Re-registering a name
// overwrites the prior factory.
func (r *Registry) Register(f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[f.TypeName()] = f
	log.Debug(log.CatRegistry, "factory registered", "type", f.TypeName())
}

// Has reports whether a factory is registered for the type name.
func (r *Registry) Has(typeName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[typeName]
	return ok
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateNode builds a node of the named type: factory lookup, parameter
// validation, capability construction, then the node's own self-validation.
// Any stage's failure aborts construction; no partially built node is
// returned.
func (r *Registry) CreateNode(typeName string, params Params) (*Node, error) {
	r.mu.RLock()
	factory, ok := r.factories[typeName]
	r.mu.RUnlock()
	if !ok {
		err := &UnknownTypeError{TypeName: typeName, Registered: r.Types()}
		log.Error(log.CatRegistry, "create failed", "type", typeName, "reason", "unregistered")
		return nil, err
	}

	if v, ok := factory.(ParameterValidator); ok {
		if err := v.ValidateParameters(params); err != nil {
			return nil, fmt.Errorf("validating parameters for %q: %w", typeName, err)
		}
	}

	capability, err := factory.Create(params)
	if err != nil {
		return nil, fmt.Errorf("creating node %q: %w", typeName, err)
	}

	node := newNode(typeName, capability, params.Clone())
	if err := node.Validate(); err != nil {
		return nil, err
	}

	log.Debug(log.CatRegistry, "node created", "type", typeName, "id", node.ID())
	return node, nil
}
