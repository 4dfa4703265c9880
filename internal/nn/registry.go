package nn

import (
	"fmt"

	"github.com/born-ml/structgp/internal/prior"
	"github.com/born-ml/structgp/internal/tensor"
)

// Entry is one registered parameter slot.
type Entry[B tensor.Backend] struct {
	Name  string
	Param *Parameter[B]
	Prior prior.Prior // nil when the slot has no prior
}

// Registry is an explicit, ordered map from parameter name to
// (parameter, prior).
//
// Registration order is preserved, so Parameters() is stable across runs.
// A parameter pointer appears at most once: including a child registry
// whose parameter is already present (a shared sub-module) keeps the first
// name.
type Registry[B tensor.Backend] struct {
	entries []Entry[B]
	byName  map[string]int
	byParam map[*Parameter[B]]int
}

// NewRegistry creates an empty registry.
func NewRegistry[B tensor.Backend]() *Registry[B] {
	return &Registry[B]{
		byName:  make(map[string]int),
		byParam: make(map[*Parameter[B]]int),
	}
}

// Register adds a named parameter slot. Duplicate names and re-registering
// the same parameter under another name are ConfigErrors.
func (r *Registry[B]) Register(name string, p *Parameter[B], pr prior.Prior) error {
	if _, ok := r.byName[name]; ok {
		return &ConfigError{Component: "registry", Field: name, Reason: "duplicate parameter name"}
	}
	if i, ok := r.byParam[p]; ok {
		return &ConfigError{
			Component: "registry",
			Field:     name,
			Reason:    fmt.Sprintf("parameter already registered as %q", r.entries[i].Name),
		}
	}
	r.byName[name] = len(r.entries)
	r.byParam[p] = len(r.entries)
	r.entries = append(r.entries, Entry[B]{Name: name, Param: p, Prior: pr})
	return nil
}

// Include registers every entry of child under prefix + "." + name, or
// under the child's own name when prefix is empty. Entries whose parameter
// is already registered are skipped.
func (r *Registry[B]) Include(prefix string, child *Registry[B]) error {
	for _, e := range child.entries {
		if _, shared := r.byParam[e.Param]; shared {
			continue
		}
		name := e.Name
		if prefix != "" {
			name = prefix + "." + name
		}
		if err := r.Register(name, e.Param, e.Prior); err != nil {
			return err
		}
	}
	return nil
}

// SetPrior attaches (or with nil, removes) the prior of a registered slot.
func (r *Registry[B]) SetPrior(name string, pr prior.Prior) error {
	i, ok := r.byName[name]
	if !ok {
		return &ConfigError{Component: "registry", Field: name, Reason: "unknown parameter"}
	}
	r.entries[i].Prior = pr
	return nil
}

// Get returns the parameter registered under name.
func (r *Registry[B]) Get(name string) (*Parameter[B], bool) {
	i, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.entries[i].Param, true
}

// Prior returns the prior of a registered slot (nil if none or unknown).
func (r *Registry[B]) Prior(name string) prior.Prior {
	i, ok := r.byName[name]
	if !ok {
		return nil
	}
	return r.entries[i].Prior
}

// Len returns the number of registered slots.
func (r *Registry[B]) Len() int {
	return len(r.entries)
}

// Entries returns the registered slots in registration order.
func (r *Registry[B]) Entries() []Entry[B] {
	out := make([]Entry[B], len(r.entries))
	copy(out, r.entries)
	return out
}

// Names returns the registered names in registration order.
func (r *Registry[B]) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Name
	}
	return names
}

// Parameters returns the registered parameters in registration order.
func (r *Registry[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], len(r.entries))
	for i, e := range r.entries {
		params[i] = e.Param
	}
	return params
}

// LogPrior returns Σ log p(θ) over every slot that has a prior, summed
// over all elements of each parameter.
func (r *Registry[B]) LogPrior() float64 {
	var total float64
	for _, e := range r.entries {
		if e.Prior != nil {
			total += prior.LogProbSum(e.Prior, e.Param.Data())
		}
	}
	return total
}

// StateDict returns a name to RawTensor snapshot of every parameter.
// The tensors are copies.
func (r *Registry[B]) StateDict() map[string]*tensor.RawTensor {
	out := make(map[string]*tensor.RawTensor, len(r.entries))
	for _, e := range r.entries {
		out[e.Name] = e.Param.Tensor().Raw().Clone()
	}
	return out
}

// LoadStateDict copies values from state into the registered parameters.
// Every registered name must be present with a matching shape.
func (r *Registry[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	for _, e := range r.entries {
		src, ok := state[e.Name]
		if !ok {
			return &ConfigError{Component: "registry", Field: e.Name, Reason: "missing from state dict"}
		}
		if !src.Shape().Equal(e.Param.Shape()) || src.DType() != tensor.Float64 {
			return &ConfigError{
				Component: "registry",
				Field:     e.Name,
				Reason:    fmt.Sprintf("state has %s%v, parameter is float64%v", src.DType(), src.Shape(), e.Param.Shape()),
			}
		}
		e.Param.Tensor().Raw().CopyFrom(src)
	}
	return nil
}
