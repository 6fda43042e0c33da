package appboot

import (
	"fmt"

	"github.com/goliatone/go-appboot/layering"
)

// FieldDescriptor describes an option path and its inferred type.
type FieldDescriptor struct {
	Path string `json:"path" yaml:"path"`
	Type string `json:"type" yaml:"type"`
}

// Describe returns a descriptor for every leaf of the effective options,
// sorted by path. Empty maps are reported as leaves.
func (a *Application) Describe() []FieldDescriptor {
	descriptors := DescribeOptions(a.state.options)
	if descriptors == nil {
		return []FieldDescriptor{}
	}
	return descriptors
}

// DescribeOptions derives field descriptors for options.
func DescribeOptions(options layering.Map) []FieldDescriptor {
	return deriveFieldDescriptors(layering.Nested(options), "")
}

func deriveFieldDescriptors(value layering.Value, prefix string) []FieldDescriptor {
	switch value.Kind() {
	case layering.KindMap:
		fields := value.Map()
		if len(fields) == 0 {
			if prefix == "" {
				return nil
			}
			return []FieldDescriptor{{Path: prefix, Type: "map"}}
		}
		var out []FieldDescriptor
		for _, key := range fields.Keys() {
			out = append(out, deriveFieldDescriptors(fields[key], joinPath(prefix, key))...)
		}
		return out
	case layering.KindSequence:
		elementType := "any"
		if items := value.Items(); len(items) > 0 {
			elementType = valueTypeName(items[0])
		}
		return []FieldDescriptor{{Path: prefix, Type: "[]" + elementType}}
	case layering.KindScalar:
		if prefix == "" {
			return nil
		}
		return []FieldDescriptor{{Path: prefix, Type: valueTypeName(value)}}
	default:
		return nil
	}
}

func valueTypeName(value layering.Value) string {
	switch value.Kind() {
	case layering.KindMap:
		return "map"
	case layering.KindSequence:
		return "[]any"
	default:
		if value.Scalar() == nil {
			return "nil"
		}
		return fmt.Sprintf("%T", value.Scalar())
	}
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + layering.PathSeparator + segment
}
