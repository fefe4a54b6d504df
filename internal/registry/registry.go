// Package registry holds the type-keyed service registry that replaces global
// singleton accessors.
//
// Each Contract maps to at most one live binding. A binding is either a
// non-owning reference to an instance or a factory that runs once on first
// resolution and is memoized until the contract is re-bound or removed.
// The registry is read-heavy: lookups take a read lock and stay O(1).
package registry

import (
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"

	dErrors "handoff/pkg/domain-errors"
)

// Contract identifies a service capability. Use ContractFor to derive one
// from a Go type so callers never spell keys by hand.
type Contract string

// ContractFor returns the contract for type T, normally an interface.
func ContractFor[T any]() Contract {
	t := reflect.TypeFor[T]()
	if t.Name() == "" || t.PkgPath() == "" {
		return Contract(t.String())
	}
	return Contract(t.PkgPath() + "." + t.Name())
}

type binding struct {
	instance any
	factory  func() (any, error)

	once  sync.Once
	value any
	err   error
}

func (b *binding) resolve(logger *slog.Logger, contract Contract) (any, error) {
	if b.factory == nil {
		return b.instance, nil
	}
	b.once.Do(func() {
		defer func() {
			if rec := recover(); rec != nil {
				b.err = fmt.Errorf("factory panicked: %v", rec)
			}
		}()
		b.value, b.err = b.factory()
		if b.err == nil && isNil(b.value) {
			b.err = fmt.Errorf("factory returned nil")
		}
	})
	if b.err != nil {
		logger.Error("service factory failed", "contract", contract, "error", b.err)
		return nil, b.err
	}
	return b.value, nil
}

// Registry maps contracts to live bindings.
type Registry struct {
	mu       sync.RWMutex
	bindings map[Contract]*binding
	logger   *slog.Logger
}

type Option func(*Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		bindings: make(map[Contract]*binding),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bind stores a direct instance for contract. The last writer wins; replacing
// an existing binding logs a warning.
func (r *Registry) Bind(contract Contract, instance any) error {
	if contract == "" {
		return dErrors.New(dErrors.CodeInvalidArgument, "contract is required")
	}
	if isNil(instance) {
		return dErrors.New(dErrors.CodeInvalidArgument, fmt.Sprintf("instance for %s is nil", contract))
	}
	r.store(contract, &binding{instance: instance})
	return nil
}

// BindFactory stores a lazy binding. The factory runs at most once, on the
// first Lookup after binding.
func (r *Registry) BindFactory(contract Contract, factory func() (any, error)) error {
	if contract == "" {
		return dErrors.New(dErrors.CodeInvalidArgument, "contract is required")
	}
	if factory == nil {
		return dErrors.New(dErrors.CodeInvalidArgument, fmt.Sprintf("factory for %s is nil", contract))
	}
	r.store(contract, &binding{factory: factory})
	return nil
}

func (r *Registry) store(contract Contract, b *binding) {
	r.mu.Lock()
	_, replaced := r.bindings[contract]
	r.bindings[contract] = b
	r.mu.Unlock()

	if replaced {
		r.logger.Warn("service binding replaced", "contract", contract)
	}
}

// Lookup returns the bound service. Unbound contracts and failed factories
// report false; Lookup never panics.
func (r *Registry) Lookup(contract Contract) (any, bool) {
	r.mu.RLock()
	b, ok := r.bindings[contract]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	v, err := b.resolve(r.logger, contract)
	if err != nil {
		return nil, false
	}
	return v, true
}

// Has reports whether contract is bound, without running a pending factory.
func (r *Registry) Has(contract Contract) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bindings[contract]
	return ok
}

// Remove drops the binding for contract. Removing an unbound contract is a no-op.
func (r *Registry) Remove(contract Contract) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bindings, contract)
}

// Clear removes every binding.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.bindings)
}

// Count returns the number of bound contracts.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}

// Contracts returns the bound contracts in lexical order.
func (r *Registry) Contracts() []Contract {
	r.mu.RLock()
	out := make([]Contract, 0, len(r.bindings))
	for c := range r.bindings {
		out = append(out, c)
	}
	r.mu.RUnlock()
	slices.Sort(out)
	return out
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
