// Package watch reloads an appboot.Application when its config files change.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/goliatone/go-appboot"
	"github.com/rs/zerolog"
)

// DefaultDebounce is the quiet period before a burst of events triggers a
// reload.
const DefaultDebounce = 250 * time.Millisecond

// ReloadFunc observes the outcome of each reload.
type ReloadFunc func(app *appboot.Application, err error)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the zerolog logger used for watcher diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger.With().Str("component", "appboot-watch").Logger()
	}
}

// OnReload registers fn to run after every reload attempt.
func OnReload(fn ReloadFunc) Option {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// Watcher watches the directories holding an application's config files.
// Reloads run on the goroutine that called Run, one at a time. Run may be
// called again after it returns; Ready stays closed from the first call.
type Watcher struct {
	app      *appboot.Application
	debounce time.Duration
	logger   zerolog.Logger
	onReload ReloadFunc

	ready     chan struct{}
	readyOnce sync.Once
	files     map[string]struct{}
	dirs      map[string]struct{}
}

// New constructs a Watcher for app.
func New(app *appboot.Application, opts ...Option) *Watcher {
	w := &Watcher{
		app:      app,
		debounce: DefaultDebounce,
		logger:   zerolog.Nop(),
		ready:    make(chan struct{}),
		files:    map[string]struct{}{},
		dirs:     map[string]struct{}{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// Ready is closed once the initial watch set is registered.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	if w.app == nil {
		return fmt.Errorf("watch: application is nil")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer fsw.Close()

	w.files, w.dirs = map[string]struct{}{}, map[string]struct{}{}
	w.sync(fsw)
	w.readyOnce.Do(func() { close(w.ready) })
	w.logger.Info().Int("files", len(w.files)).Int("dirs", len(w.dirs)).Msg("watching config files")

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("config file changed")
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("watcher error")
		case <-fire:
			fire = nil
			w.reload(ctx)
			w.sync(fsw)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	start := time.Now()
	err := w.app.Reload(ctx)
	if err != nil {
		w.logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("reload failed")
	} else {
		w.logger.Info().Dur("duration", time.Since(start)).Msg("config reloaded")
	}
	if w.onReload != nil {
		w.onReload(w.app, err)
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	_, ok := w.files[filepath.Clean(event.Name)]
	return ok
}

// sync points the fsnotify watcher at the directories of the current config
// files. Directories are watched instead of files so atomic replacements by
// editors are observed.
func (w *Watcher) sync(fsw *fsnotify.Watcher) {
	files := map[string]struct{}{}
	dirs := map[string]struct{}{}
	for _, file := range w.app.ConfigFiles() {
		abs, err := filepath.Abs(file)
		if err != nil {
			continue
		}
		if _, err := os.Stat(abs); err != nil {
			continue
		}
		files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	for dir := range dirs {
		if _, ok := w.dirs[dir]; ok {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			w.logger.Warn().Err(err).Str("dir", dir).Msg("failed to watch directory")
			delete(dirs, dir)
		}
	}
	for dir := range w.dirs {
		if _, ok := dirs[dir]; !ok {
			_ = fsw.Remove(dir)
		}
	}
	w.files, w.dirs = files, dirs
}
