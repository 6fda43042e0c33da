package config

import (
	"fmt"

	"github.com/goliatone/go-appboot/layering"
)

// ExtendsKey names the parent section a section inherits from.
const ExtendsKey = "_extends"

// SelectSection returns the section of doc named environment with its
// inheritance chain applied (parent first, child on top). An empty environment
// returns doc unchanged.
func SelectSection(doc layering.Map, environment string) (layering.Map, error) {
	if environment == "" {
		return doc, nil
	}
	return resolveSection(doc, environment, map[string]struct{}{})
}

func resolveSection(doc layering.Map, name string, visiting map[string]struct{}) (layering.Map, error) {
	if _, seen := visiting[name]; seen {
		return nil, fmt.Errorf("%w: %q", ErrCircularExtends, name)
	}
	visiting[name] = struct{}{}

	value, ok := doc[name]
	if !ok || !value.IsMap() {
		return nil, fmt.Errorf("%w: %q", ErrSectionNotFound, name)
	}

	section := value.Map().Clone()
	if section == nil {
		section = layering.Map{}
	}
	parent, hasParent := section[ExtendsKey]
	delete(section, ExtendsKey)
	if !hasParent {
		return section, nil
	}

	names := parent.Strings()
	if len(names) == 0 || names[0] == "" {
		return section, nil
	}
	base, err := resolveSection(doc, names[0], visiting)
	if err != nil {
		return nil, err
	}
	return layering.Merge(base, section), nil
}
