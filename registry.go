package appboot

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrAlreadyRegistered indicates a second registration under a taken name.
var ErrAlreadyRegistered = errors.New("appboot: already registered")

// registry is a concurrency-safe name index shared by the function registry
// and the autoloader. key maps a public name to its index key.
type registry[T any] struct {
	kind  string
	key   func(string) string
	mu    sync.RWMutex
	items map[string]T
}

func newRegistry[T any](kind string, key func(string) string) *registry[T] {
	if key == nil {
		key = func(name string) string { return name }
	}
	return &registry[T]{kind: kind, key: key, items: map[string]T{}}
}

func (r *registry[T]) add(name string, item T) error {
	k := r.key(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[k]; exists {
		return fmt.Errorf("%w: %s %q", ErrAlreadyRegistered, r.kind, name)
	}
	r.items[k] = item
	return nil
}

func (r *registry[T]) get(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[r.key(name)]
	return item, ok
}

func (r *registry[T]) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.items))
	for name := range r.items {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

func (r *registry[T]) clone() *registry[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := newRegistry[T](r.kind, r.key)
	for name, item := range r.items {
		out.items[name] = item
	}
	return out
}
