package activity

import (
	"context"
	"strings"
	"time"
)

// DefaultChannel is stamped on events emitted without a channel.
const DefaultChannel = "appboot"

// EmitterOption configures an Emitter.
type EmitterOption func(*Emitter)

// WithChannel sets the channel for events that carry none. Blank keeps
// DefaultChannel.
func WithChannel(channel string) EmitterOption {
	return func(e *Emitter) {
		if channel = strings.TrimSpace(channel); channel != "" {
			e.channel = channel
		}
	}
}

// WithActor sets the actor for events that carry none.
func WithActor(actorID string) EmitterOption {
	return func(e *Emitter) {
		e.actor = strings.TrimSpace(actorID)
	}
}

// WithClock sets the source of OccurredAt for events without a timestamp.
func WithClock(now func() time.Time) EmitterOption {
	return func(e *Emitter) {
		if now != nil {
			e.now = now
		}
	}
}

// Emitter fills in channel, actor and timestamp before fanning events out to
// its hooks. A nil Emitter or one without hooks drops everything.
type Emitter struct {
	hooks   Hooks
	channel string
	actor   string
	now     func() time.Time
}

func NewEmitter(hooks Hooks, opts ...EmitterOption) *Emitter {
	e := &Emitter{
		hooks:   hooks.Clone(),
		channel: DefaultChannel,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Enabled reports whether Emit would reach any hook.
func (e *Emitter) Enabled() bool {
	return e != nil && len(e.hooks) > 0
}

// Channel returns the channel applied to events without one.
func (e *Emitter) Channel() string {
	if e == nil {
		return DefaultChannel
	}
	return e.channel
}

// Emit stamps defaults on event and notifies the hooks.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	if strings.TrimSpace(event.ActorID) == "" {
		event.ActorID = e.actor
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = e.now()
	}
	return e.hooks.Notify(ctx, event)
}
