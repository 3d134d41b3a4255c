// pkg/service/registry.go
package service

import "fmt"

// Registry collects service specs in registration order. Registration order
// is the order the manager starts services in.
type Registry struct {
	specs []Spec
	names map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// Add appends a spec. The name must be non-empty and unique, and the run
// function must be non-nil.
func (r *Registry) Add(spec Spec) error {
	if spec.Name == "" {
		return ErrEmptyServiceName
	}
	if spec.Run == nil {
		return fmt.Errorf("%w: %s", ErrNilRunFunc, spec.Name)
	}
	if _, exists := r.names[spec.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateService, spec.Name)
	}

	r.names[spec.Name] = struct{}{}
	r.specs = append(r.specs, spec)
	return nil
}

// Len returns the number of registered services.
func (r *Registry) Len() int {
	return len(r.specs)
}

// Names returns the registered service names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.specs))
	for _, spec := range r.specs {
		out = append(out, spec.Name)
	}
	return out
}

// Specs returns a copy of the registered specs in order. The manager takes
// this copy at construction, so later Add calls do not affect a running
// generation.
func (r *Registry) Specs() []Spec {
	out := make([]Spec, len(r.specs))
	copy(out, r.specs)
	return out
}
