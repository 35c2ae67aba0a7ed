package hydrx

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

var errNilTarget = errors.New("target is nil")

// Engine hydrates values of struct type T from lookups.
//
// The plan is built once by New and never changes afterwards, so an Engine
// is safe for concurrent use. Lookups that share mutable state must
// synchronize themselves.
type Engine[T any] struct {
	typeName string
	members  []member
	policy   BatchPolicy
	workers  int
	hook     ObservabilityHook
}

// New builds the hydration plan for T. It fails with a *PlanBuildError when
// T is not a struct, a key override is invalid, two members share a key, or
// a member's type has no converter.
func New[T any](opts ...Option) (*Engine[T], error) {
	typ := reflect.TypeFor[T]()

	s := defaultSettings()
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, NewPlanBuildError(typ.String(), "", fmt.Errorf("%w: %w", ErrInvalidConfiguration, err))
		}
	}

	members, err := buildPlan(typ, s)
	if err != nil {
		return nil, err
	}
	members = narrow(members, s.include, s.exclude)

	return &Engine[T]{
		typeName: typ.String(),
		members:  members,
		policy:   s.policy,
		workers:  s.workers,
		hook:     combineHooks(s.hooks),
	}, nil
}

// MustNew is like New but panics on error. Meant for package-level engines.
func MustNew[T any](opts ...Option) *Engine[T] {
	e, err := New[T](opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// Plan returns a copy of the hydration plan: fields first, then properties.
func (e *Engine[T]) Plan() []MemberInfo {
	out := make([]MemberInfo, len(e.members))
	for i, m := range e.members {
		out[i] = m.info()
	}
	return out
}

// Keys returns the lookup keys in plan order.
func (e *Engine[T]) Keys() []string {
	out := make([]string, len(e.members))
	for i, m := range e.members {
		out[i] = m.key()
	}
	return out
}

// Hydrate returns a new T with every planned member applied from lookup.
// On error the partially hydrated value is discarded.
func (e *Engine[T]) Hydrate(lookup Lookup, opts ...CallOption) (*T, error) {
	if lookup == nil {
		return nil, ErrNilLookup
	}
	target := new(T)
	if err := e.hydrateOne("Hydrate", target, func(_ *T, key string) Result { return lookup(key) }, opts); err != nil {
		return nil, err
	}
	return target, nil
}

// HydrateInto applies lookup to target and returns it. Members a lookup
// skips, and members outside an Include/Exclude filter, keep their current
// value. On error, members before the failing one stay applied.
func (e *Engine[T]) HydrateInto(target *T, lookup Lookup, opts ...CallOption) (*T, error) {
	if lookup == nil {
		return target, ErrNilLookup
	}
	return target, e.hydrateOne("HydrateInto", target, func(_ *T, key string) Result { return lookup(key) }, opts)
}

// HydrateTarget is Hydrate with a lookup that observes the value being
// built. Members earlier in the plan are already applied when a key is asked.
func (e *Engine[T]) HydrateTarget(lookup TargetLookup[T], opts ...CallOption) (*T, error) {
	if lookup == nil {
		return nil, ErrNilLookup
	}
	target := new(T)
	if err := e.hydrateOne("HydrateTarget", target, lookup, opts); err != nil {
		return nil, err
	}
	return target, nil
}

// HydrateTargetInto is HydrateInto with a target-aware lookup.
func (e *Engine[T]) HydrateTargetInto(target *T, lookup TargetLookup[T], opts ...CallOption) (*T, error) {
	if lookup == nil {
		return target, ErrNilLookup
	}
	return target, e.hydrateOne("HydrateTargetInto", target, lookup, opts)
}

func (e *Engine[T]) hydrateOne(operation string, target *T, lookup TargetLookup[T], opts []CallOption) error {
	call := newCallSettings(opts)
	members := narrow(e.members, call.include, call.exclude)
	metadata := e.metadata(len(members))

	start := time.Now()
	e.hook.OnHydrateStart(call.ctx, operation, metadata)

	var err error
	if target == nil {
		err = NewAssignmentError(e.typeName, "", errNilTarget)
	} else {
		err = e.apply(call.ctx, operation, metadata, target, members, lookup)
	}

	if err != nil {
		e.hook.OnError(call.ctx, operation, err, metadata)
	}
	e.hook.OnHydrateComplete(call.ctx, operation, time.Since(start), err, metadata)
	return err
}

// apply runs one pass over members for one instance. It stops at the first
// failing member.
func (e *Engine[T]) apply(ctx context.Context, operation string, metadata map[string]any, target *T, members []member, lookup TargetLookup[T]) error {
	v := reflect.ValueOf(target).Elem()
	for _, m := range members {
		r := lookup(target, m.key())
		if r.IsSkip() {
			e.hook.OnMemberSkipped(ctx, operation, m.key(), metadata)
			continue
		}
		if err := m.apply(v, r); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine[T]) metadata(members int) map[string]any {
	return map[string]any{
		"target_type": e.typeName,
		"members":     members,
		"call_id":     uuid.NewString(),
	}
}
