package hydrx

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/hengadev/hydrx/internal/convert"
	"github.com/hengadev/hydrx/internal/tags"
)

type planBuilder struct {
	root     reflect.Type
	typeName string
	tagName  string
	registry *convert.Registry
	members  []member
	seen     map[string]string
}

// buildPlan lists the assignable members of t: every exported field in
// declaration order, embedded structs flattened in place, followed by the
// registered properties in registration order.
func buildPlan(t reflect.Type, s *settings) ([]member, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, NewPlanBuildError(fmt.Sprint(t), "", fmt.Errorf("%w: hydration targets must be struct types", ErrInvalidTarget))
	}

	b := &planBuilder{
		root:     t,
		typeName: t.String(),
		tagName:  s.tagName,
		registry: s.registry(),
		seen:     make(map[string]string),
	}

	if err := b.walkFields(t, nil, nil, map[reflect.Type]bool{t: true}); err != nil {
		return nil, err
	}
	for _, p := range s.properties {
		if err := b.addProperty(p); err != nil {
			return nil, err
		}
	}
	return b.members, nil
}

func (b *planBuilder) walkFields(t reflect.Type, index []int, path []string, visiting map[reflect.Type]bool) error {
	for i := range t.NumField() {
		field := t.Field(i)
		fieldIndex := append(append([]int(nil), index...), i)
		fieldPath := append(append([]string(nil), path...), field.Name)

		if !field.Anonymous && !field.IsExported() {
			continue
		}

		spec, err := tags.Resolve(field, b.tagName)
		if err != nil {
			return NewPlanBuildError(b.typeName, strings.Join(fieldPath, "."), fmt.Errorf("%w: %w", ErrInvalidKey, err))
		}
		if spec.Ignore {
			continue
		}

		if field.Anonymous && !spec.Explicit {
			embedded := field.Type
			if embedded.Kind() == reflect.Pointer {
				if !field.IsExported() {
					continue
				}
				embedded = embedded.Elem()
			}
			if embedded.Kind() == reflect.Struct && !b.isLeaf(embedded) {
				if visiting[embedded] {
					continue
				}
				visiting[embedded] = true
				err := b.walkFields(embedded, fieldIndex, fieldPath, visiting)
				delete(visiting, embedded)
				if err != nil {
					return err
				}
				continue
			}
		}

		if !field.IsExported() {
			continue
		}

		fn, err := b.registry.For(field.Type)
		if err != nil {
			return NewPlanBuildError(b.typeName, strings.Join(fieldPath, "."), fmt.Errorf("%w: %w", ErrUnsupportedType, err))
		}

		m := &fieldMember{
			meta: MemberInfo{
				Key:  spec.Key,
				Name: field.Name,
				Path: strings.Join(fieldPath, "."),
				Kind: FieldMember,
				Type: field.Type,
			},
			owner:   b.typeName,
			index:   fieldIndex,
			convert: fn,
		}
		if err := b.add(m); err != nil {
			return err
		}
	}
	return nil
}

// isLeaf reports whether an embedded struct converts as a whole (time.Time,
// text unmarshalers, custom converters) instead of being flattened.
func (b *planBuilder) isLeaf(t reflect.Type) bool {
	_, err := b.registry.For(t)
	return err == nil
}

func (b *planBuilder) addProperty(p propertySpec) error {
	if p.owner != b.root {
		return NewPlanBuildError(b.typeName, p.key,
			fmt.Errorf("%w: property is registered for %s", ErrInvalidTarget, p.owner))
	}
	if err := tags.Validate(p.key); err != nil {
		return NewPlanBuildError(b.typeName, p.key, fmt.Errorf("%w: %w", ErrInvalidKey, err))
	}

	fn, err := b.registry.For(p.valueType)
	if err != nil {
		return NewPlanBuildError(b.typeName, p.key, fmt.Errorf("%w: %w", ErrUnsupportedType, err))
	}

	return b.add(&propertyMember{
		meta: MemberInfo{
			Key:  p.key,
			Name: p.key,
			Path: p.key,
			Kind: PropertyMember,
			Type: p.valueType,
		},
		owner:   b.typeName,
		convert: fn,
		set:     p.set,
	})
}

func (b *planBuilder) add(m member) error {
	meta := m.info()
	if other, ok := b.seen[meta.Key]; ok {
		return NewPlanBuildError(b.typeName, meta.Path,
			fmt.Errorf("%w: '%s' is already used by '%s'", ErrDuplicateKey, meta.Key, other))
	}
	b.seen[meta.Key] = meta.Path
	b.members = append(b.members, m)
	return nil
}
