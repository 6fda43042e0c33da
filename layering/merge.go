package layering

// Merge combines base with overlay and returns a new Map. Overlay wins on every
// key it defines. When both sides hold a nested map under the same key the two
// maps are merged recursively; in every other case the overlay value replaces
// the base value wholesale, including a nested overlay map replacing a scalar
// or sequence in base. Keys present only in base are kept. Neither input is
// mutated. A nil overlay yields a copy of base.
func Merge(base, overlay Map) Map {
	result := base.Clone()
	if overlay == nil {
		return result
	}
	if result == nil {
		result = make(Map, len(overlay))
	}

	for key, value := range overlay {
		if value.kind == KindMap {
			if existing, ok := result[key]; ok && existing.kind == KindMap {
				result[key] = Nested(Merge(existing.fields, value.fields))
				continue
			}
		}
		result[key] = value.Clone()
	}
	return result
}

// MergeAll folds layers left to right, each one overlaying the accumulated
// result. The last layer is the strongest.
func MergeAll(layers ...Map) Map {
	merged := Map{}
	for _, layer := range layers {
		merged = Merge(merged, layer)
	}
	return merged
}

// MergeLayers composes layers ordered from strongest to weakest. It is the
// mirror image of MergeAll.
func MergeLayers(layers ...Map) Map {
	merged := Map{}
	for i := len(layers) - 1; i >= 0; i-- {
		merged = Merge(merged, layers[i])
	}
	return merged
}

// MergeAny is the untyped counterpart of Merge. Overlay values that are not
// maps leave base untouched. The result is always a fresh map.
func MergeAny(base map[string]any, overlay any) map[string]any {
	typedBase := FromMap(base)
	var typedOverlay Map
	switch typed := overlay.(type) {
	case Map:
		typedOverlay = typed
	case map[string]any:
		typedOverlay = FromMap(typed)
	default:
		if value := FromAny(overlay); value.kind == KindMap {
			typedOverlay = value.fields
		}
	}
	merged := Merge(typedBase, typedOverlay)
	if merged == nil {
		return map[string]any{}
	}
	return merged.ToAny()
}
