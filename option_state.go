package appboot

import (
	"sort"
	"strings"

	"github.com/goliatone/go-appboot/layering"
)

// optionState pairs the top-level options with their lower-cased key index.
// Values are never mutated after construction; SetOptions swaps the whole
// state so the two halves cannot drift.
type optionState struct {
	options layering.Map
	keys    map[string]string
}

func newOptionState(options layering.Map) *optionState {
	if options == nil {
		options = layering.Map{}
	}
	keys := make(map[string]string, len(options))
	for _, key := range options.Keys() {
		// Keys are visited in byte order, so on a case collision the key
		// sorting last wins.
		keys[strings.ToLower(key)] = key
	}
	return &optionState{options: options, keys: keys}
}

func (s *optionState) has(key string) bool {
	_, ok := s.keys[strings.ToLower(key)]
	return ok
}

func (s *optionState) lookup(key string) (layering.Value, bool) {
	original, ok := s.keys[strings.ToLower(key)]
	if !ok {
		return layering.Value{}, false
	}
	return s.options[original], true
}

func (s *optionState) lowerKeys() []string {
	keys := make([]string, 0, len(s.keys))
	for key := range s.keys {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
