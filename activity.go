package appboot

import (
	"context"

	"github.com/goliatone/go-appboot/pkg/activity"
)

// WithActivityHooks attaches activity hooks notified on option changes,
// bootstrap and run. Hooks are cloned and nil entries dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := hooks.Clone()
	return func(cfg *applicationConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityChannel sets the channel stamped on emitted events.
func WithActivityChannel(channel string) Option {
	return func(cfg *applicationConfig) {
		cfg.activityChannel = channel
	}
}

// WithActivityActor sets the actor ID stamped on emitted events.
func WithActivityActor(actorID string) Option {
	return func(cfg *applicationConfig) {
		cfg.activityActor = actorID
	}
}

// ActivityHooks returns a cloned slice of the configured activity hooks.
func (a *Application) ActivityHooks() activity.Hooks {
	if a == nil {
		return nil
	}
	return a.cfg.activityHooks.Clone()
}

// eventInput carries the environment; actor and channel are stamped by the
// emitter.
func (a *Application) eventInput() activity.EventInput {
	return activity.EventInput{Environment: a.environment}
}

// emit forwards event to the hooks. Hook failures are logged, never returned.
func (a *Application) emit(ctx context.Context, event activity.Event) {
	if !a.cfg.emitter.Enabled() {
		return
	}
	if err := a.cfg.emitter.Emit(ctx, event); err != nil {
		a.log(LogEntry{
			Stage:  StageOptions,
			Detail: "activity hook failed",
			Fields: map[string]any{"verb": event.Verb},
			Err:    err,
		})
	}
}
