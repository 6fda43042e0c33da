package appboot

import (
	"errors"
	"fmt"
	"sort"

	"github.com/goliatone/go-appboot/layering"
)

// Layer is one options document contributing to the effective options. Higher
// priorities are stronger.
type Layer struct {
	Name     string
	Source   string
	Priority int
	Options  layering.Map
}

// NewLayer constructs a Layer holding a detached copy of options.
func NewLayer(name string, priority int, options layering.Map) Layer {
	return Layer{
		Name:     name,
		Priority: priority,
		Options:  options.Clone(),
	}
}

// WithSource returns a copy of l that records where its options came from.
func (l Layer) WithSource(source string) Layer {
	l.Source = source
	l.Options = l.Options.Clone()
	return l
}

func (l Layer) clone() Layer {
	l.Options = l.Options.Clone()
	return l
}

var (
	// ErrLayerNameRequired indicates a layer without a name.
	ErrLayerNameRequired = errors.New("layer: name must be provided")
	// ErrDuplicateLayerName indicates two layers share a name.
	ErrDuplicateLayerName = errors.New("layer: names must be unique")
	// ErrPriorityOrder indicates duplicate priorities.
	ErrPriorityOrder = errors.New("layer: priorities must be strictly ordered")
)

// Stack is an immutable set of layers ordered from strongest to weakest.
type Stack struct {
	layers []Layer
}

// NewStack validates and sorts layers so the strongest (highest priority)
// comes first. Layers are deep copied.
func NewStack(layers ...Layer) (*Stack, error) {
	if len(layers) == 0 {
		return &Stack{}, nil
	}

	seenNames := make(map[string]struct{}, len(layers))
	copied := make([]Layer, len(layers))
	for i, layer := range layers {
		layer := layer.clone()
		if layer.Name == "" {
			return nil, ErrLayerNameRequired
		}
		if _, ok := seenNames[layer.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLayerName, layer.Name)
		}
		seenNames[layer.Name] = struct{}{}
		copied[i] = layer
	}

	sort.SliceStable(copied, func(i, j int) bool {
		return copied[i].Priority > copied[j].Priority
	})

	for i := 1; i < len(copied); i++ {
		if copied[i-1].Priority == copied[i].Priority {
			return nil, fmt.Errorf("%w: %d", ErrPriorityOrder, copied[i].Priority)
		}
	}

	return &Stack{layers: copied}, nil
}

// Layers returns copies of the layers, strongest first.
func (s *Stack) Layers() []Layer {
	if s == nil || len(s.layers) == 0 {
		return nil
	}
	out := make([]Layer, len(s.layers))
	for i := range s.layers {
		out[i] = s.layers[i].clone()
	}
	return out
}

// Len returns the number of layers in the stack.
func (s *Stack) Len() int {
	if s == nil {
		return 0
	}
	return len(s.layers)
}

// Merge folds the layers from weakest to strongest with layering.Merge.
func (s *Stack) Merge() layering.Map {
	if s == nil || len(s.layers) == 0 {
		return layering.Map{}
	}
	snapshots := make([]layering.Map, len(s.layers))
	for i := range s.layers {
		snapshots[i] = s.layers[i].Options
	}
	return layering.MergeLayers(snapshots...)
}
