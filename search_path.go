package appboot

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// SearchPath is an ordered list of directories consulted when resolving
// relative config and bootstrap paths. Directories set from the includePaths
// option are kept apart from the seeded ones and replaced on every
// SetOptions; they are consulted first.
type SearchPath struct {
	mu      sync.RWMutex
	dirs    []string
	options []string
}

// NewSearchPath constructs a SearchPath seeded with dirs.
func NewSearchPath(dirs ...string) *SearchPath {
	p := &SearchPath{}
	p.Append(dirs...)
	return p
}

// Prepend places dirs ahead of the existing entries, keeping their order. An
// entry already present moves to the front.
func (p *SearchPath) Prepend(dirs ...string) {
	cleaned := cleanDirs(dirs)
	if len(cleaned) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dirs = append(cleaned, without(p.dirs, cleaned)...)
}

// Append places dirs after the existing entries. Entries already present keep
// their position.
func (p *SearchPath) Append(dirs ...string) {
	cleaned := cleanDirs(dirs)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dirs = append(p.dirs, without(cleaned, p.dirs)...)
}

// setOptionDirs replaces the directories contributed by options.
func (p *SearchPath) setOptionDirs(dirs []string) {
	cleaned := cleanDirs(dirs)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.options = cleaned
}

// Dirs returns a copy of the entries: option directories first, then the
// seeded ones not already listed.
func (p *SearchPath) Dirs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.options)+len(p.dirs))
	out = append(out, p.options...)
	return append(out, without(p.dirs, p.options)...)
}

// String joins the entries with the OS list separator.
func (p *SearchPath) String() string {
	return strings.Join(p.Dirs(), string(os.PathListSeparator))
}

// Resolve returns name when it exists as given, otherwise the first existing
// candidate under the search path entries.
func (p *SearchPath) Resolve(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if fileExists(name) {
		return name, true
	}
	if filepath.IsAbs(name) {
		return "", false
	}
	for _, dir := range p.Dirs() {
		candidate := filepath.Join(dir, name)
		if fileExists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// cleanDirs trims, cleans and de-duplicates dirs, keeping first occurrences.
func cleanDirs(dirs []string) []string {
	out := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		dir = filepath.Clean(dir)
		if !slices.Contains(out, dir) {
			out = append(out, dir)
		}
	}
	return out
}

// without returns the entries of dirs not in drop.
func without(dirs, drop []string) []string {
	out := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if !slices.Contains(drop, dir) {
			out = append(out, dir)
		}
	}
	return out
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
