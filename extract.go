package reltrack

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mickamy/reltrack/internal/naming"
	"github.com/mickamy/reltrack/internal/shape"
)

// extract builds the trackable representation of one relation from live state.
// A nil result means the relation is absent.
func (d *Descriptor) extract(record any, rel Relation) (any, error) {
	switch rel.Kind {
	case EmbedsOne:
		child := relationValue(record, rel)
		if isNil(child) {
			return nil, nil
		}
		return d.childChanges(child)

	case EmbedsMany:
		children, err := elements(relationValue(record, rel), true)
		if err != nil {
			return nil, fmt.Errorf("reltrack: relation %s: %w", rel.Name, err)
		}
		out := make(shape.Seq, 0, len(children))
		for i, child := range children {
			ch, err := d.childChanges(child)
			if err != nil {
				return nil, fmt.Errorf("reltrack: relation %s[%d]: %w", rel.Name, i, err)
			}
			out = append(out, ch)
		}
		return out, nil

	case HasOne:
		target := relationValue(record, rel)
		if isNil(target) {
			return nil, nil
		}
		v, _ := attribute(target, rel.Key)
		return Changes{rel.Key: v}, nil

	case HasMany:
		return idEntries(record, rel, rel.Key)

	case HasAndBelongsToMany:
		return idEntries(record, rel, rel.PrimaryKey)

	case BelongsTo:
		v, ok := attribute(record, rel.ForeignKey)
		if !ok || isEmpty(v) {
			return nil, nil
		}
		return Changes{rel.ForeignKey: v}, nil

	case KindUnknown:
		return nil, nil
	}
	return nil, nil
}

// childChanges reads an embedded child's change report, preferring the relation-aware one.
func (d *Descriptor) childChanges(child any) (Changes, error) {
	var ch Changes
	switch c := child.(type) {
	case RelationAwareChanges:
		var err error
		if ch, err = c.ChangesWithRelations(); err != nil {
			return nil, err
		}
	case NativeChanges:
		ch = c.Changes()
	default:
		return nil, fmt.Errorf("%w: %T", ErrNoChangeReport, child)
	}
	return d.h.stripKeys(ch), nil
}

func idEntries(record any, rel Relation, key string) (any, error) {
	raw, _ := attribute(record, rel.IDs)
	ids, err := elements(raw, false)
	if err != nil {
		return nil, fmt.Errorf("reltrack: relation %s ids %s: %w", rel.Name, rel.IDs, err)
	}
	out := make(shape.Seq, len(ids))
	for i, id := range ids {
		out[i] = Changes{key: id}
	}
	return out, nil
}

func relationValue(record any, rel Relation) any {
	if r, ok := record.(Relater); ok {
		return r.Relation(rel.Name)
	}
	if rel.field == nil {
		return nil
	}
	rv := indirect(reflect.ValueOf(record))
	if rv.Kind() != reflect.Struct {
		return nil
	}
	f, err := rv.FieldByIndexErr(rel.field)
	if err != nil {
		return nil
	}
	if f.Kind() == reflect.Struct && f.CanAddr() {
		return f.Addr().Interface()
	}
	return f.Interface()
}

// attribute reads a named attribute via Attributer, a string-keyed map, or a struct field.
func attribute(obj any, name string) (any, bool) {
	if a, ok := obj.(Attributer); ok {
		return a.Attribute(name)
	}
	rv := indirect(reflect.ValueOf(obj))
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true
	case reflect.Struct:
		idx, ok := fieldIndex(rv.Type(), name)
		if !ok {
			return nil, false
		}
		f, err := rv.FieldByIndexErr(idx)
		if err != nil {
			return nil, false
		}
		return f.Interface(), true
	}
	return nil, false
}

// fieldIndex finds the exported field named by a reltrack name option, a json tag, or its snake_case name.
func fieldIndex(typ reflect.Type, name string) ([]int, bool) {
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		if tag, ok := f.Tag.Lookup(tagName); ok {
			if _, opts := naming.Tag(tag); opts["name"] == name {
				return f.Index, true
			}
		}
		if tag, ok := f.Tag.Lookup("json"); ok {
			if jsonName, _, _ := strings.Cut(tag, ","); jsonName == name {
				return f.Index, true
			}
		}
		if naming.Snake(f.Name) == name {
			return f.Index, true
		}
	}
	return nil, false
}

// elements flattens a slice or array. Struct elements are returned as pointers when addr is set,
// so that pointer-receiver methods are visible.
func elements(v any, addr bool) ([]any, error) {
	if isNil(v) {
		return nil, nil
	}
	rv := indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
	default:
		return nil, fmt.Errorf("%T is not a collection", v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		e := rv.Index(i)
		if addr && e.Kind() == reflect.Struct && e.CanAddr() {
			out[i] = e.Addr().Interface()
			continue
		}
		out[i] = e.Interface()
	}
	return out, nil
}

func indirect(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// isEmpty treats nil and zero values (empty string, zero id) as empty.
func isEmpty(v any) bool {
	if isNil(v) {
		return true
	}
	return reflect.ValueOf(v).IsZero()
}
