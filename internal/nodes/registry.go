// Package nodes holds the declarative node descriptors exposed to the
// host graph editor and the built-in handlers behind them.
package nodes

import (
	"context"
	"fmt"
	"sync"

	"falbridge/pkg/types"
)

// Inputs is the argument bag a node handler receives from graph
// execution.
type Inputs map[string]any

// Outputs maps output names to values. Handlers always return one
// well-shaped value per declared output, even on remote failure.
type Outputs map[string]any

// Handler executes one node.
type Handler func(ctx context.Context, in Inputs) (Outputs, error)

// Node couples a descriptor with its handler.
type Node struct {
	Descriptor types.NodeDescriptor
	Run        Handler
}

// String returns the string input named key, or "".
func (in Inputs) String(key string) string {
	v, _ := in[key].(string)
	return v
}

// Int returns the numeric input named key. JSON numbers arrive as
// float64 and are truncated toward zero.
func (in Inputs) Int(key string) (int, bool) {
	switch v := in[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Tensor returns the tensor input named key, or nil.
func (in Inputs) Tensor(key string) *types.Tensor {
	v, _ := in[key].(*types.Tensor)
	return v
}

// Registry keeps nodes in registration order, mirroring how the host
// displays them.
type Registry struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*Node
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Node)}
}

// Register adds a node; duplicate IDs are rejected.
func (r *Registry) Register(n *Node) error {
	if n == nil || n.Descriptor.ID == "" {
		return fmt.Errorf("nodes: missing node id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[n.Descriptor.ID]; exists {
		return fmt.Errorf("nodes: duplicate node id %q", n.Descriptor.ID)
	}
	r.byID[n.Descriptor.ID] = n
	r.order = append(r.order, n.Descriptor.ID)
	return nil
}

// Get returns the node registered under id.
func (r *Registry) Get(id string) (*Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.byID[id]
	return n, ok
}

// Descriptors returns all descriptors in registration order.
func (r *Registry) Descriptors() []types.NodeDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.NodeDescriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id].Descriptor)
	}
	return out
}
