package appboot

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// NamespaceSeparator splits a qualified bootstrap class name into namespace
// and name ("app.Bootstrap").
const NamespaceSeparator = "."

// BootstrapFactory builds a Bootstrapper bound to app.
type BootstrapFactory func(app *Application) (Bootstrapper, error)

// Autoloader resolves bootstrap class names to factories. Unqualified names
// resolve whenever a factory is registered. Qualified names resolve only when
// their namespace (or a parent namespace) is registered, unless fallback is
// enabled.
type Autoloader struct {
	mu         sync.RWMutex
	namespaces []string
	fallback   bool
	factories  *registry[BootstrapFactory]
}

// NewAutoloader constructs an Autoloader with ResourceBootstrap registered
// under ResourceBootstrapClass.
func NewAutoloader() *Autoloader {
	a := &Autoloader{factories: newRegistry[BootstrapFactory]("bootstrap class", nil)}
	_ = a.factories.add(ResourceBootstrapClass, func(app *Application) (Bootstrapper, error) {
		return NewResourceBootstrap(app), nil
	})
	return a
}

// RegisterNamespace records namespaces allowed for qualified class names.
// Duplicates are ignored.
func (a *Autoloader) RegisterNamespace(namespaces ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, ns := range namespaces {
		ns = strings.Trim(strings.TrimSpace(ns), NamespaceSeparator)
		if ns == "" || slices.Contains(a.namespaces, ns) {
			continue
		}
		a.namespaces = append(a.namespaces, ns)
	}
}

// Namespaces returns the registered namespaces in registration order.
func (a *Autoloader) Namespaces() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.namespaces)
}

// SetFallback toggles resolution of qualified names outside registered
// namespaces.
func (a *Autoloader) SetFallback(enabled bool) {
	a.mu.Lock()
	a.fallback = enabled
	a.mu.Unlock()
}

// Register adds factory under class. Classes are case-sensitive.
func (a *Autoloader) Register(class string, factory BootstrapFactory) error {
	if strings.TrimSpace(class) == "" {
		return fmt.Errorf("appboot: bootstrap class must not be empty")
	}
	if factory == nil {
		return fmt.Errorf("appboot: bootstrap factory %q is nil", class)
	}
	return a.factories.add(class, factory)
}

// Classes returns the registered class names sorted alphabetically.
func (a *Autoloader) Classes() []string {
	return a.factories.names()
}

// Resolve returns the factory registered for class. A qualified class also
// needs its namespace, or a parent of it, registered unless fallback is on.
func (a *Autoloader) Resolve(class string) (BootstrapFactory, error) {
	factory, ok := a.factories.get(class)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBootstrapNotFound, class)
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	namespace := classNamespace(class)
	if namespace == "" || a.fallback || a.namespaceRegistered(namespace) {
		return factory, nil
	}
	return nil, fmt.Errorf("%w: %s (namespace %q not registered)", ErrBootstrapNotFound, class, namespace)
}

func (a *Autoloader) namespaceRegistered(namespace string) bool {
	for _, ns := range a.namespaces {
		if namespace == ns || strings.HasPrefix(namespace, ns+NamespaceSeparator) {
			return true
		}
	}
	return false
}

func classNamespace(class string) string {
	idx := strings.LastIndex(class, NamespaceSeparator)
	if idx <= 0 {
		return ""
	}
	return class[:idx]
}
