package appboot

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/goliatone/go-appboot/internal/hydrate"
	"github.com/goliatone/go-appboot/layering"
)

// DecodeOption configures Decode.
type DecodeOption[T any] = hydrate.DecoderOption[T]

// DecodeStrict rejects option keys that have no matching struct field.
func DecodeStrict[T any]() DecodeOption[T] {
	return hydrate.WithDisallowUnknownFields[T]()
}

// DecodeYAMLTags decodes using yaml struct tags instead of json ones.
func DecodeYAMLTags[T any]() DecodeOption[T] {
	return hydrate.WithYAMLTags[T]()
}

// DecodeValidate validates the result with go-playground/validator struct
// tags. A nil validate uses a default validator.
func DecodeValidate[T any](validate *validator.Validate) DecodeOption[T] {
	return hydrate.WithValidator[T](validate)
}

// DecodeNormalize rewrites the option sub-tree before it is decoded.
func DecodeNormalize[T any](fn func(key string, options layering.Map) (layering.Map, error)) DecodeOption[T] {
	return hydrate.WithPreHook[T](func(ctx hydrate.Context, options layering.Map) (layering.Map, error) {
		return fn(ctx.Key, options)
	})
}

// Decode hydrates the option sub-tree at the dotted path key into T. An empty
// key decodes the whole options structure.
func Decode[T any](app *Application, key string, opts ...DecodeOption[T]) (T, error) {
	var zero T
	if app == nil {
		return zero, fmt.Errorf("appboot: decode %q: application is nil", key)
	}

	options := app.Options()
	if key != "" {
		value, ok := layering.Lookup(options, key)
		if !ok {
			return zero, fmt.Errorf("appboot: decode: option %q not found", key)
		}
		if !value.IsMap() {
			return zero, fmt.Errorf("appboot: decode: option %q is a %s, not a map", key, value.Kind())
		}
		options = value.Map()
	}

	decoder := hydrate.NewDecoder[T](opts...)
	return decoder.Decode(hydrate.Context{Key: key, Environment: app.environment}, options)
}
