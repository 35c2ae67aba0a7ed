package hydrx

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/hengadev/hydrx/internal/convert"
)

// MemberKind tells fields and registered properties apart.
type MemberKind int8

const (
	FieldMember MemberKind = iota
	PropertyMember
)

func (k MemberKind) String() string {
	if k == PropertyMember {
		return "property"
	}
	return "field"
}

// MemberInfo describes one entry of a hydration plan.
type MemberInfo struct {
	Key  string
	Name string
	// Path is the dotted field path through embedded structs, or the key for properties.
	Path string
	Kind MemberKind
	Type reflect.Type
}

// member binds a key and a converter to one assignable slot of the target.
type member interface {
	key() string
	info() MemberInfo
	// apply writes r into target, which must be the addressable struct value.
	// r is never a skip.
	apply(target reflect.Value, r Result) error
}

var errNotSettable = errors.New("member is not settable")

type fieldMember struct {
	meta    MemberInfo
	owner   string
	index   []int
	convert convert.Func
}

func (m *fieldMember) key() string { return m.meta.Key }

func (m *fieldMember) info() MemberInfo { return m.meta }

func (m *fieldMember) apply(target reflect.Value, r Result) error {
	// The zero value of a field under a nil embedded pointer is already
	// what a read through the promoted field would see.
	if r.IsNull() && underNilPointer(target, m.index) {
		return nil
	}

	value, err := convertResult(m.owner, m.meta, m.convert, r)
	if err != nil {
		return err
	}

	slot, err := fieldByIndexAlloc(target, m.index)
	if err != nil {
		return NewAssignmentError(m.owner, m.meta.Key, err)
	}
	if !slot.CanSet() {
		return NewAssignmentError(m.owner, m.meta.Key, errNotSettable)
	}
	if !value.Type().AssignableTo(slot.Type()) {
		return NewAssignmentError(m.owner, m.meta.Key,
			fmt.Errorf("%s is not assignable to %s", value.Type(), slot.Type()))
	}
	slot.Set(value)
	return nil
}

// fieldByIndexAlloc walks index like reflect.Value.FieldByIndex, allocating
// nil embedded pointers on the way.
func fieldByIndexAlloc(v reflect.Value, index []int) (reflect.Value, error) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !v.CanSet() {
					return reflect.Value{}, fmt.Errorf("cannot allocate embedded %s", v.Type().Elem())
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, nil
}

// underNilPointer reports whether index passes through a nil embedded pointer.
func underNilPointer(v reflect.Value, index []int) bool {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return true
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return false
}

type propertyMember struct {
	meta    MemberInfo
	owner   string
	convert convert.Func
	set     func(target, value reflect.Value)
}

func (m *propertyMember) key() string { return m.meta.Key }

func (m *propertyMember) info() MemberInfo { return m.meta }

func (m *propertyMember) apply(target reflect.Value, r Result) (err error) {
	value, err := convertResult(m.owner, m.meta, m.convert, r)
	if err != nil {
		return err
	}
	if !target.CanAddr() {
		return NewAssignmentError(m.owner, m.meta.Key, errNotSettable)
	}

	defer func() {
		if p := recover(); p != nil {
			err = NewAssignmentError(m.owner, m.meta.Key, fmt.Errorf("setter panicked: %v", p))
		}
	}()
	m.set(target, value)
	return nil
}

func convertResult(owner string, meta MemberInfo, fn convert.Func, r Result) (reflect.Value, error) {
	raw, ok := r.Raw()
	if !ok {
		return reflect.Zero(meta.Type), nil
	}
	value, err := fn(raw)
	if err != nil {
		return reflect.Value{}, NewConversionError(owner, meta.Type.String(), meta.Key, raw, err)
	}
	return value, nil
}

type propertySpec struct {
	owner     reflect.Type
	key       string
	valueType reflect.Type
	set       func(target, value reflect.Value)
}

// Property registers a setter-backed member of T under key. Properties are
// hydrated after all fields, in registration order, and convert raw values
// to V exactly like fields of type V.
//
//	hydrx.New[Meal](hydrx.Property("Total", func(m *Meal, cents int64) {
//	    m.SetTotal(cents)
//	}))
func Property[T, V any](key string, set func(target *T, value V)) Option {
	return func(s *settings) error {
		if set == nil {
			return fmt.Errorf("property '%s' has a nil setter", key)
		}
		s.properties = append(s.properties, propertySpec{
			owner:     reflect.TypeFor[T](),
			key:       key,
			valueType: reflect.TypeFor[V](),
			set: func(target, value reflect.Value) {
				set(target.Addr().Interface().(*T), value.Interface().(V))
			},
		})
		return nil
	}
}
