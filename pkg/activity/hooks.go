package activity

import (
	"context"
	"errors"
	"maps"
	"strings"
	"time"
)

// Event is one application lifecycle occurrence: options set, a config file
// loaded, a bootstrap or a run. Identifiers are plain strings so hooks decide
// how to map them.
type Event struct {
	Verb        string
	ActorID     string
	Environment string
	ObjectType  string
	ObjectID    string
	Channel     string
	Metadata    map[string]any
	OccurredAt  time.Time
}

// Normalized returns a trimmed copy of e with its own metadata map and a
// timestamp.
func (e Event) Normalized() Event {
	out := Event{
		Verb:        strings.TrimSpace(e.Verb),
		ActorID:     strings.TrimSpace(e.ActorID),
		Environment: strings.TrimSpace(e.Environment),
		ObjectType:  strings.TrimSpace(e.ObjectType),
		ObjectID:    strings.TrimSpace(e.ObjectID),
		Channel:     strings.TrimSpace(e.Channel),
		OccurredAt:  e.OccurredAt,
	}
	if len(e.Metadata) > 0 {
		out.Metadata = maps.Clone(e.Metadata)
	}
	if out.OccurredAt.IsZero() {
		out.OccurredAt = time.Now()
	}
	return out
}

// Complete reports whether e names a verb and an object. Incomplete events
// are dropped by Hooks.
func (e Event) Complete() bool {
	return strings.TrimSpace(e.Verb) != "" &&
		strings.TrimSpace(e.ObjectType) != "" &&
		strings.TrimSpace(e.ObjectID) != ""
}

// ActivityHook receives normalized events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks is an ordered set of hooks notified together.
type Hooks []ActivityHook

// Notify normalizes event once and hands it to every hook. All hooks run even
// when some fail; their errors are joined.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 || !event.Complete() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	event = event.Normalized()
	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clone returns h without nil entries, or nil when nothing remains.
func (h Hooks) Clone() Hooks {
	var out Hooks
	for _, hook := range h {
		if hook != nil {
			out = append(out, hook)
		}
	}
	return out
}
