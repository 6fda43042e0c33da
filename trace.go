package appboot

import (
	"encoding/json"

	"github.com/goliatone/go-appboot/layering"
)

// Trace captures, for a dotted option path, what each layer contributed.
type Trace struct {
	Path   string       `json:"path" yaml:"path"`
	Layers []Provenance `json:"layers" yaml:"layers"`
}

// Provenance details how a single layer contributed to a traced path.
type Provenance struct {
	Layer    string `json:"layer" yaml:"layer"`
	Source   string `json:"source,omitempty" yaml:"source,omitempty"`
	Priority int    `json:"priority" yaml:"priority"`
	Path     string `json:"path" yaml:"path"`
	Value    any    `json:"value,omitempty" yaml:"value,omitempty"`
	Found    bool   `json:"found" yaml:"found"`
}

// Winner returns the strongest layer that defined the path.
func (t Trace) Winner() (Provenance, bool) {
	for _, layer := range t.Layers {
		if layer.Found {
			return layer, true
		}
	}
	return Provenance{}, false
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}

func traceStack(stack *Stack, path string) Trace {
	trace := Trace{Path: path}
	for _, layer := range stack.Layers() {
		entry := Provenance{
			Layer:    layer.Name,
			Source:   layer.Source,
			Priority: layer.Priority,
			Path:     path,
		}
		if value, ok := layering.Lookup(layer.Options, path); ok {
			entry.Found = true
			entry.Value = value.Any()
		}
		trace.Layers = append(trace.Layers, entry)
	}
	return trace
}

// FlattenWithProvenance reports, for every leaf of the effective options, the
// strongest layer that defined it. Entries are ordered by path.
func (a *Application) FlattenWithProvenance() []Provenance {
	leaves := layering.Flatten(a.state.options, "")
	out := make([]Provenance, 0, len(leaves))
	for _, leaf := range leaves {
		winner, ok := traceStack(a.stack, leaf.Path).Winner()
		if !ok {
			winner = Provenance{Path: leaf.Path}
		}
		winner.Value = leaf.Value.Any()
		winner.Found = true
		out = append(out, winner)
	}
	return out
}
