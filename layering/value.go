package layering

import (
	"fmt"
	"reflect"
	"sort"
)

// Kind tags the shape held by a Value.
type Kind uint8

const (
	// KindInvalid is the zero Value, produced for absent entries.
	KindInvalid Kind = iota
	// KindScalar holds a single leaf (string, number, bool, nil, time, ...).
	KindScalar
	// KindSequence holds an ordered list of values.
	KindSequence
	// KindMap holds a nested options structure.
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMap:
		return "map"
	default:
		return "invalid"
	}
}

// Value is a tagged option value. Exactly one of the payload fields is
// meaningful, selected by kind.
type Value struct {
	kind   Kind
	scalar any
	items  []Value
	fields Map
}

// Map is a nested options structure. Keys keep their original casing.
type Map map[string]Value

// Scalar wraps a leaf value. Maps and slices passed here are stored opaquely;
// use FromAny to convert untyped trees.
func Scalar(v any) Value {
	return Value{kind: KindScalar, scalar: v}
}

// Sequence builds an ordered list value.
func Sequence(items ...Value) Value {
	return Value{kind: KindSequence, items: items}
}

// Nested wraps m as a map value.
func Nested(m Map) Value {
	return Value{kind: KindMap, fields: m}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind {
	return v.kind
}

// IsMap reports whether v holds a nested structure.
func (v Value) IsMap() bool {
	return v.kind == KindMap
}

// IsValid reports whether v holds any variant.
func (v Value) IsValid() bool {
	return v.kind != KindInvalid
}

// Scalar returns the leaf payload, or nil for non-scalar values.
func (v Value) Scalar() any {
	if v.kind != KindScalar {
		return nil
	}
	return v.scalar
}

// Items returns a copy of the sequence entries, or nil for non-sequences.
func (v Value) Items() []Value {
	if v.kind != KindSequence || v.items == nil {
		return nil
	}
	out := make([]Value, len(v.items))
	copy(out, v.items)
	return out
}

// Map returns the nested structure, or nil for non-map values. The returned map
// is shared with v; clone it before mutating.
func (v Value) Map() Map {
	if v.kind != KindMap {
		return nil
	}
	return v.fields
}

// Strings returns the sequence entries (or the single scalar) rendered as
// strings. Nested maps are skipped.
func (v Value) Strings() []string {
	switch v.kind {
	case KindScalar:
		if v.scalar == nil {
			return nil
		}
		return []string{fmt.Sprint(v.scalar)}
	case KindSequence:
		out := make([]string, 0, len(v.items))
		for _, item := range v.items {
			if item.kind != KindScalar || item.scalar == nil {
				continue
			}
			out = append(out, fmt.Sprint(item.scalar))
		}
		return out
	case KindMap:
		keys := v.fields.Keys()
		out := make([]string, 0, len(keys))
		for _, key := range keys {
			item := v.fields[key]
			if item.kind != KindScalar || item.scalar == nil {
				continue
			}
			out = append(out, fmt.Sprint(item.scalar))
		}
		return out
	default:
		return nil
	}
}

// IsEmpty reports whether v carries no usable content: invalid, nil, false,
// numeric zero, empty string, or an empty sequence or map.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindScalar:
		if v.scalar == nil {
			return true
		}
		rv := reflect.ValueOf(v.scalar)
		switch rv.Kind() {
		case reflect.Bool, reflect.String,
			reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return rv.IsZero()
		case reflect.Slice, reflect.Map:
			return rv.Len() == 0
		default:
			return false
		}
	case KindSequence:
		return len(v.items) == 0
	case KindMap:
		return len(v.fields) == 0
	default:
		return true
	}
}

// Any converts v back into an untyped tree of map[string]any, []any and leaves.
func (v Value) Any() any {
	switch v.kind {
	case KindScalar:
		return v.scalar
	case KindSequence:
		if v.items == nil {
			return []any(nil)
		}
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Any()
		}
		return out
	case KindMap:
		return v.fields.ToAny()
	default:
		return nil
	}
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindSequence:
		if v.items == nil {
			return Value{kind: KindSequence}
		}
		items := make([]Value, len(v.items))
		for i, item := range v.items {
			items[i] = item.Clone()
		}
		return Value{kind: KindSequence, items: items}
	case KindMap:
		return Value{kind: KindMap, fields: v.fields.Clone()}
	default:
		return v
	}
}

// Equal reports deep equality of two values.
func (v Value) Equal(other Value) bool {
	return reflect.DeepEqual(v, other)
}

// Clone returns a deep copy of m. A nil map clones to nil.
func (m Map) Clone() Map {
	if m == nil {
		return nil
	}
	out := make(Map, len(m))
	for key, value := range m {
		out[key] = value.Clone()
	}
	return out
}

// ToAny converts m into an untyped map[string]any tree.
func (m Map) ToAny() map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for key, value := range m {
		out[key] = value.Any()
	}
	return out
}

// Keys returns the keys of m sorted in byte order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value stored under key (exact match).
func (m Map) Get(key string) (Value, bool) {
	value, ok := m[key]
	return value, ok
}

// Equal reports deep equality of two maps.
func (m Map) Equal(other Map) bool {
	return reflect.DeepEqual(m, other)
}

// FromMap converts an untyped map into a Map.
func FromMap(raw map[string]any) Map {
	if raw == nil {
		return nil
	}
	out := make(Map, len(raw))
	for key, value := range raw {
		out[key] = FromAny(value)
	}
	return out
}

// FromAny converts an untyped tree into a Value. Maps keyed by strings (or by
// anything printable) become KindMap, slices and arrays become KindSequence,
// everything else is a scalar.
func FromAny(raw any) Value {
	switch typed := raw.(type) {
	case Value:
		return typed.Clone()
	case Map:
		return Nested(typed.Clone())
	case map[string]any:
		return Nested(FromMap(typed))
	case []any:
		items := make([]Value, len(typed))
		for i, item := range typed {
			items[i] = FromAny(item)
		}
		return Sequence(items...)
	case []byte:
		return Scalar(string(typed))
	case nil:
		return Scalar(nil)
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return Nested(nil)
		}
		out := make(Map, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = FromAny(iter.Value().Interface())
		}
		return Nested(out)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Value{kind: KindSequence}
		}
		items := make([]Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = FromAny(rv.Index(i).Interface())
		}
		return Sequence(items...)
	default:
		return Scalar(raw)
	}
}
