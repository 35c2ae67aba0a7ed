package hydrx

// Result is a lookup's answer for one key: a value, a null, or a skip.
//
// The zero Result is a null. A null is applied to the member and leaves it
// at the zero value of its type; a skip leaves the member untouched.
type Result struct {
	value string
	state resultState
}

type resultState uint8

const (
	stateNull resultState = iota
	stateValue
	stateSkip
)

// Value returns a result carrying raw.
func Value(raw string) Result {
	return Result{value: raw, state: stateValue}
}

// Null returns a result that clears the member.
func Null() Result {
	return Result{}
}

// Skip returns a result that leaves the member untouched.
func Skip() Result {
	return Result{state: stateSkip}
}

// Optional returns Value(raw) when ok, Null otherwise. It matches the
// comma-ok shape of map reads.
func Optional(raw string, ok bool) Result {
	if !ok {
		return Null()
	}
	return Value(raw)
}

// Nullable returns Null for a nil pointer and Value(*raw) otherwise.
func Nullable(raw *string) Result {
	if raw == nil {
		return Null()
	}
	return Value(*raw)
}

func (r Result) IsNull() bool { return r.state == stateNull }

func (r Result) IsSkip() bool { return r.state == stateSkip }

// Raw returns the carried value and whether there is one.
func (r Result) Raw() (string, bool) {
	return r.value, r.state == stateValue
}

func (r Result) String() string {
	switch r.state {
	case stateValue:
		return r.value
	case stateSkip:
		return "<skip>"
	default:
		return "<null>"
	}
}

// Lookup answers a key for single-object hydration.
type Lookup func(key string) Result

// TargetLookup answers a key while observing the instance being hydrated.
// Members earlier in plan order have already been applied.
type TargetLookup[T any] func(target *T, key string) Result

// RowLookup answers a key for one source row.
type RowLookup[S any] func(row S, key string) Result

// RowTargetLookup answers a key for one source row while observing the
// instance being hydrated from it.
type RowTargetLookup[S, T any] func(row S, target *T, key string) Result

// Strings adapts a comma-ok lookup; a false ok is a null.
func Strings(fn func(key string) (string, bool)) Lookup {
	if fn == nil {
		return nil
	}
	return func(key string) Result {
		return Optional(fn(key))
	}
}

// Map looks keys up in m; missing keys are nulls.
func Map(m map[string]string) Lookup {
	return func(key string) Result {
		v, ok := m[key]
		return Optional(v, ok)
	}
}

// NullableMap looks keys up in m; missing keys and nil values are nulls.
func NullableMap(m map[string]*string) Lookup {
	return func(key string) Result {
		return Nullable(m[key])
	}
}

// RowStrings adapts a comma-ok row lookup; a false ok is a null.
func RowStrings[S any](fn func(row S, key string) (string, bool)) RowLookup[S] {
	if fn == nil {
		return nil
	}
	return func(row S, key string) Result {
		return Optional(fn(row, key))
	}
}
