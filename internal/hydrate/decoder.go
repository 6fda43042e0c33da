package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/goliatone/go-appboot/layering"
	"gopkg.in/yaml.v3"
)

// Context identifies the option sub-tree being decoded.
type Context struct {
	Key         string
	Environment string
}

// Stages reported by Error.
const (
	StagePre    = "pre-hook"
	StageDecode = "decode"
	StagePost   = "post-hook"
)

// Error reports which stage of a Decode failed for which key.
type Error struct {
	Key   string
	Stage string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("hydrate: %s for key %q: %v", e.Stage, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// PreHook rewrites the option tree before decoding. Returning nil keeps the
// tree unchanged.
type PreHook func(Context, layering.Map) (layering.Map, error)

// PostHook adjusts or checks the decoded value.
type PostHook[T any] func(Context, *T) error

// CustomDecoder replaces the built-in codecs.
type CustomDecoder[T any] func(Context, layering.Map) (T, error)

type DecoderOption[T any] func(*Decoder[T])

// Decoder turns an option tree into T by encoding it with one codec and
// decoding it back into the struct. JSON is the default codec, so json tags
// apply unless WithYAMLTags is set.
type Decoder[T any] struct {
	pre       []PreHook
	post      []PostHook[T]
	custom    CustomDecoder[T]
	yaml      bool
	useNumber bool
	strict    bool
}

func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) { d.pre = append(d.pre, hook) }
}

func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) { d.post = append(d.post, hook) }
}

// WithUseNumber keeps JSON numbers as json.Number in interface fields.
func WithUseNumber[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) { d.useNumber = true }
}

// WithDisallowUnknownFields fails on keys without a matching field, for both
// codecs.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) { d.strict = true }
}

// WithYAMLTags switches the codec to gopkg.in/yaml.v3.
func WithYAMLTags[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) { d.yaml = true }
}

// WithValidator appends a post hook running validate.Struct. A nil validate
// gets a validator with required struct checks enabled.
func WithValidator[T any](validate *validator.Validate) DecoderOption[T] {
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}
	return WithPostHook[T](func(_ Context, result *T) error {
		return validate.Struct(result)
	})
}

func WithCustomDecoder[T any](decoder CustomDecoder[T]) DecoderOption[T] {
	return func(d *Decoder[T]) { d.custom = decoder }
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode runs the pre hooks on a copy of options, decodes, then runs the post
// hooks in registration order.
func (d *Decoder[T]) Decode(ctx Context, options layering.Map) (T, error) {
	var result T
	if options == nil {
		return result, &Error{Key: ctx.Key, Stage: StageDecode, Err: fmt.Errorf("options are nil")}
	}

	tree := options.Clone()
	for _, hook := range d.pre {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, tree)
		if err != nil {
			return result, &Error{Key: ctx.Key, Stage: StagePre, Err: err}
		}
		if next != nil {
			tree = next
		}
	}

	if err := d.decode(ctx, tree, &result); err != nil {
		var zero T
		return zero, &Error{Key: ctx.Key, Stage: StageDecode, Err: err}
	}

	for _, hook := range d.post {
		if hook == nil {
			continue
		}
		if err := hook(ctx, &result); err != nil {
			var zero T
			return zero, &Error{Key: ctx.Key, Stage: StagePost, Err: err}
		}
	}
	return result, nil
}

func (d *Decoder[T]) decode(ctx Context, tree layering.Map, out *T) (err error) {
	if d.custom != nil {
		*out, err = d.custom(ctx, tree)
		return err
	}

	if d.yaml {
		raw, err := yaml.Marshal(tree.ToAny())
		if err != nil {
			return err
		}
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(d.strict)
		return dec.Decode(out)
	}

	raw, err := json.Marshal(tree.ToAny())
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if d.useNumber {
		dec.UseNumber()
	}
	if d.strict {
		dec.DisallowUnknownFields()
	}
	return dec.Decode(out)
}
