package config

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-appboot/layering"
)

// MemoryLoader is an in-memory Loader keyed by path. It is intended for tests,
// examples and embedders that assemble documents in code. Stored documents
// are copied on the way in and out.
type MemoryLoader struct {
	mu        sync.RWMutex
	documents map[string]layering.Map
}

// NewMemoryLoader constructs an empty MemoryLoader.
func NewMemoryLoader() *MemoryLoader {
	return &MemoryLoader{documents: map[string]layering.Map{}}
}

// Put stores doc under path, replacing any previous document.
func (l *MemoryLoader) Put(path string, doc layering.Map) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.documents == nil {
		l.documents = map[string]layering.Map{}
	}
	l.documents[path] = doc.Clone()
}

// Load implements Loader. Section selection follows the same rules as
// FileLoader.
func (l *MemoryLoader) Load(ctx context.Context, path, environment string) (layering.Map, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, Wrap("load", path, err)
		}
	}

	l.mu.RLock()
	doc, ok := l.documents[path]
	l.mu.RUnlock()
	if !ok {
		return nil, Wrap("load", path, fmt.Errorf("%w: no document stored", ErrUnreadable))
	}

	section, err := SelectSection(doc.Clone(), environment)
	if err != nil {
		return nil, Wrap("section", path, err)
	}
	if section == nil {
		section = layering.Map{}
	}
	return section, nil
}
