package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-appboot/layering"
)

// Loader turns a config location into an options structure for environment.
type Loader interface {
	Load(ctx context.Context, path, environment string) (layering.Map, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, path, environment string) (layering.Map, error)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, path, environment string) (layering.Map, error) {
	if f == nil {
		return nil, Wrap("load", path, fmt.Errorf("loader func is nil"))
	}
	return f(ctx, path, environment)
}

// DecodeFunc converts raw file contents into an options document.
type DecodeFunc func(data []byte) (layering.Map, error)

// FileLoaderOption configures a FileLoader.
type FileLoaderOption func(*FileLoader)

// WithDecoder registers decode for the given file extension (without the dot,
// case-insensitive), replacing any existing decoder.
func WithDecoder(extension string, decode DecodeFunc) FileLoaderOption {
	return func(l *FileLoader) {
		extension = normalizeExtension(extension)
		if extension == "" || decode == nil {
			return
		}
		l.decoders[extension] = decode
	}
}

// WithoutSections disables environment section selection; documents are
// returned whole regardless of the environment.
func WithoutSections() FileLoaderOption {
	return func(l *FileLoader) {
		l.ignoreSections = true
	}
}

// FileLoader reads config files from disk and dispatches on the extension.
type FileLoader struct {
	decoders       map[string]DecodeFunc
	ignoreSections bool
}

// NewFileLoader constructs a FileLoader with the built-in formats: json, jsonc,
// yaml, yml, toml, ini, plus hcl, properties and dotenv through viper.
func NewFileLoader(opts ...FileLoaderOption) *FileLoader {
	l := &FileLoader{decoders: defaultDecoders()}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Extensions lists the registered extensions.
func (l *FileLoader) Extensions() []string {
	out := make([]string, 0, len(l.decoders))
	for ext := range l.decoders {
		out = append(out, ext)
	}
	return sortedStrings(out)
}

// Supports reports whether path has a registered decoder.
func (l *FileLoader) Supports(path string) bool {
	_, ok := l.decoders[normalizeExtension(filepath.Ext(path))]
	return ok
}

// Load implements Loader.
func (l *FileLoader) Load(ctx context.Context, path, environment string) (layering.Map, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, Wrap("load", path, err)
	}

	extension := normalizeExtension(filepath.Ext(path))
	decode, ok := l.decoders[extension]
	if !ok {
		return nil, Wrap("load", path, ErrUnknownFormat)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Wrap("load", path, fmt.Errorf("%w: %w", ErrUnreadable, err))
	}

	doc, err := decode(data)
	if err != nil {
		return nil, Wrap("decode", path, fmt.Errorf("%w: %w", ErrMalformed, err))
	}
	if doc == nil {
		doc = layering.Map{}
	}

	if l.ignoreSections {
		return doc, nil
	}
	section, err := SelectSection(doc, environment)
	if err != nil {
		return nil, Wrap("section", path, err)
	}
	return section, nil
}

func normalizeExtension(extension string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(extension), "."))
}
