package shape

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/google/go-cmp/cmp"
)

// ErrMismatch reports a shadow and a current value that cannot be diffed against each other.
var ErrMismatch = errors.New("shape: structural mismatch")

// Map is a mapping from key to either a Pair or a bare value.
type Map map[string]any

// Seq is an ordered sequence of shapes, normally of Map.
type Seq []any

// Pair holds the old and new side of a single changed value.
type Pair [2]any

// Old returns the value before the change.
func (p Pair) Old() any { return p[0] }

// New returns the value after the change.
func (p Pair) New() any { return p[1] }

// Normalize converts plain Go containers into Map and Seq. Other values are returned as-is.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case Map:
		return x
	case map[string]any:
		return Map(x)
	case Seq:
		return x
	case []Map:
		out := make(Seq, len(x))
		for i, m := range x {
			out[i] = m
		}
		return out
	case []map[string]any:
		out := make(Seq, len(x))
		for i, m := range x {
			out[i] = Map(m)
		}
		return out
	case []any:
		out := make(Seq, len(x))
		for i, e := range x {
			if m, ok := asMap(e); ok {
				out[i] = m
				continue
			}
			out[i] = e
		}
		return out
	}
	return v
}

// Split separates a shadow value into its old and new sides.
// Mappings and sequences of mappings are split key by key; anything else is returned unchanged on both sides.
func Split(v any) (any, any) {
	switch x := Normalize(v).(type) {
	case Map:
		o, n := splitMap(x)
		return o, n
	case Seq:
		o, n := splitSeq(x)
		return o, n
	}
	return v, v
}

// Zip rebuilds a paired shape from the two sides produced by Split.
func Zip(o, n any) any {
	om, oOK := asMap(o)
	nm, nOK := asMap(n)
	if oOK && nOK {
		return zipMap(om, nm)
	}
	os, oOK := Normalize(o).(Seq)
	ns, nOK := Normalize(n).(Seq)
	if oOK && nOK && len(os) == len(ns) {
		out := make(Seq, len(os))
		for i := range os {
			out[i] = Zip(os[i], ns[i])
		}
		return out
	}
	return Pair{o, n}
}

// Derive diffs a stored shadow against a fresh extraction of the same relation.
// Keys come from the current value: a pair contributes its own old and new side, a bare
// value is compared against the shadow's captured value at that key. Keys only the shadow
// holds are ignored, but sequence positions only the shadow holds stay on the old side.
// nil stands for an absent relation and only ever derives to nil.
func Derive(shadow, current any) (any, any, error) {
	sh, cur := Normalize(shadow), Normalize(current)
	switch {
	case isScalar(sh) && isScalar(cur):
		return current, current, nil
	case isScalar(sh) || isScalar(cur):
		return nil, nil, fmt.Errorf("%w: shadow is %s, current is %s", ErrMismatch, describe(sh), describe(cur))
	}

	switch c := cur.(type) {
	case nil:
		if sh == nil {
			return nil, nil, nil
		}
		_, n := Split(sh)
		return n, nil, nil
	case Map:
		switch s := sh.(type) {
		case nil:
			_, n := splitMap(c)
			return nil, n, nil
		case Map:
			_, captured := splitMap(s)
			o, n := deriveMap(captured, c)
			return o, n, nil
		}
	case Seq:
		switch s := sh.(type) {
		case nil:
			n, err := newSides(c)
			if err != nil {
				return nil, nil, err
			}
			return nil, n, nil
		case Seq:
			return deriveSeq(s, c)
		}
	}
	return nil, nil, fmt.Errorf("%w: shadow is %s, current is %s", ErrMismatch, describe(sh), describe(cur))
}

var exportAll = cmp.Exporter(func(reflect.Type) bool { return true })

// Equal reports deep value equality. nil equals only nil, never an empty container.
func Equal(a, b any) bool {
	return cmp.Equal(a, b, exportAll)
}

func splitMap(m Map) (Map, Map) {
	o := make(Map, len(m))
	n := make(Map, len(m))
	for k, v := range m {
		if p, ok := asPair(v); ok {
			o[k] = p[0]
			n[k] = p[1]
			continue
		}
		o[k] = v
		n[k] = v
	}
	return o, n
}

func splitSeq(s Seq) (Seq, Seq) {
	o := make(Seq, len(s))
	n := make(Seq, len(s))
	for i, e := range s {
		if m, ok := asMap(e); ok {
			o[i], n[i] = splitMap(m)
			continue
		}
		o[i], n[i] = e, e
	}
	return o, n
}

func zipMap(o, n Map) Map {
	out := make(Map, len(n))
	for k, v := range o {
		out[k] = Pair{v, n[k]}
	}
	for k, v := range n {
		if _, ok := o[k]; !ok {
			out[k] = Pair{nil, v}
		}
	}
	return out
}

func deriveMap(captured, current Map) (Map, Map) {
	o := make(Map, len(current))
	n := make(Map, len(current))
	for k, v := range current {
		if p, ok := asPair(v); ok {
			o[k], n[k] = p[0], p[1]
			continue
		}
		n[k] = v
		if c, ok := captured[k]; ok {
			o[k] = c
			continue
		}
		o[k] = v
	}
	return o, n
}

func deriveSeq(shadow, current Seq) (any, any, error) {
	old := make(Seq, len(shadow))
	captured := make([]Map, len(shadow))
	for i, e := range shadow {
		sm, ok := asMap(e)
		if !ok {
			return nil, nil, fmt.Errorf("%w: shadow element %d is %s, not a mapping", ErrMismatch, i, describe(e))
		}
		_, captured[i] = splitMap(sm)
		old[i] = captured[i]
	}
	n := make(Seq, len(current))
	for i, e := range current {
		cm, ok := asMap(e)
		if !ok {
			return nil, nil, fmt.Errorf("%w: current element %d is %s, not a mapping", ErrMismatch, i, describe(e))
		}
		if i < len(captured) {
			old[i], n[i] = deriveMap(captured[i], cm)
			continue
		}
		_, n[i] = splitMap(cm)
	}
	return old, n, nil
}

func newSides(current Seq) (Seq, error) {
	out := make(Seq, len(current))
	for i, e := range current {
		m, ok := asMap(e)
		if !ok {
			return nil, fmt.Errorf("%w: current element %d is %s, not a mapping", ErrMismatch, i, describe(e))
		}
		_, out[i] = splitMap(m)
	}
	return out, nil
}

func asMap(v any) (Map, bool) {
	switch m := v.(type) {
	case Map:
		return m, true
	case map[string]any:
		return Map(m), true
	}
	return nil, false
}

func asPair(v any) (Pair, bool) {
	switch p := v.(type) {
	case Pair:
		return p, true
	case [2]any:
		return Pair(p), true
	}
	return Pair{}, false
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, Map, Seq:
		return false
	}
	return true
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "absent"
	case Map, map[string]any:
		return "a mapping"
	case Seq:
		return "a sequence"
	}
	return fmt.Sprintf("%T", v)
}
