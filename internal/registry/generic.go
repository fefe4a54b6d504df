package registry

import (
	"fmt"

	dErrors "handoff/pkg/domain-errors"
)

// Register binds instance as the implementation of T.
func Register[T any](r *Registry, instance T) error {
	return r.Bind(ContractFor[T](), instance)
}

// RegisterFactory binds a lazily constructed implementation of T.
func RegisterFactory[T any](r *Registry, factory func() T) error {
	if factory == nil {
		return dErrors.New(dErrors.CodeInvalidArgument, fmt.Sprintf("factory for %s is nil", ContractFor[T]()))
	}
	return r.BindFactory(ContractFor[T](), func() (any, error) {
		return factory(), nil
	})
}

// Resolve returns the implementation of T, or false when T is unbound.
func Resolve[T any](r *Registry) (T, bool) {
	var zero T
	v, ok := r.Lookup(ContractFor[T]())
	if !ok {
		return zero, false
	}
	svc, ok := v.(T)
	if !ok {
		r.logger.Error("service binding has wrong type",
			"contract", ContractFor[T](),
			"type", fmt.Sprintf("%T", v),
		)
		return zero, false
	}
	return svc, true
}

// Require is Resolve for call sites that cannot proceed without T.
func Require[T any](r *Registry) (T, error) {
	svc, ok := Resolve[T](r)
	if !ok {
		return svc, dErrors.New(dErrors.CodeServiceNotRegistered,
			fmt.Sprintf("service %s is not registered", ContractFor[T]()))
	}
	return svc, nil
}

// Unregister removes the binding for T. It is idempotent.
func Unregister[T any](r *Registry) {
	r.Remove(ContractFor[T]())
}

// IsRegistered reports whether T is bound.
func IsRegistered[T any](r *Registry) bool {
	return r.Has(ContractFor[T]())
}
