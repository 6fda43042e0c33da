package layering

import "strings"

// PathSeparator joins nested keys in dotted paths.
const PathSeparator = "."

// Lookup resolves a dotted path inside m. Each segment prefers an exact key
// match and falls back to a case-insensitive one.
func Lookup(m Map, path string) (Value, bool) {
	if path == "" {
		return Value{}, false
	}
	current := m
	segments := strings.Split(path, PathSeparator)
	for i, segment := range segments {
		value, ok := lookupKey(current, segment)
		if !ok {
			return Value{}, false
		}
		if i == len(segments)-1 {
			return value, true
		}
		if value.kind != KindMap {
			return Value{}, false
		}
		current = value.fields
	}
	return Value{}, false
}

func lookupKey(m Map, key string) (Value, bool) {
	if value, ok := m[key]; ok {
		return value, true
	}
	lowered := strings.ToLower(key)
	var (
		match   string
		found   bool
		matched Value
	)
	for candidate, value := range m {
		if strings.ToLower(candidate) != lowered {
			continue
		}
		if !found || candidate > match {
			match, matched, found = candidate, value, true
		}
	}
	return matched, found
}

// Leaf is a flattened entry produced by Flatten.
type Leaf struct {
	Path  string
	Value Value
}

// Flatten walks m depth first and returns every non-map value keyed by its
// prefixed, dotted path. Entries are ordered by path.
func Flatten(m Map, prefix string) []Leaf {
	var leaves []Leaf
	for _, key := range m.Keys() {
		value := m[key]
		path := key
		if prefix != "" {
			path = prefix + PathSeparator + key
		}
		if value.kind == KindMap {
			leaves = append(leaves, Flatten(value.fields, path)...)
			continue
		}
		leaves = append(leaves, Leaf{Path: path, Value: value})
	}
	return leaves
}
