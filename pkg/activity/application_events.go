package activity

import (
	"maps"
	"strings"
	"time"
)

// ObjectTypeApplication is the object type of every application event.
const ObjectTypeApplication = "application"

// Verbs emitted by the application.
const (
	VerbOptionsSet   = "options.set"
	VerbBootstrap    = "application.bootstrap"
	VerbRun          = "application.run"
	VerbConfigLoaded = "config.loaded"
)

// EventInput describes the common fields for application lifecycle events.
type EventInput struct {
	ActorID     string
	Environment string
	ObjectID    string
	Channel     string
	Metadata    map[string]any
	OccurredAt  time.Time
}

// BuildOptionsSetEvent describes a SetOptions call. keys are the lower-cased
// top-level option keys and layers the number of merged layers.
func BuildOptionsSetEvent(input EventInput, keys []string, layers int) Event {
	event := BuildEvent(VerbOptionsSet, input)
	event.Metadata = ensureMetadata(event.Metadata)
	event.Metadata["keys"] = append([]string{}, keys...)
	event.Metadata["layers"] = layers
	return event
}

// BuildBootstrapEvent describes a bootstrap of resources (all when empty).
func BuildBootstrapEvent(input EventInput, resources []string) Event {
	event := BuildEvent(VerbBootstrap, input)
	if len(resources) > 0 {
		event.Metadata = ensureMetadata(event.Metadata)
		event.Metadata["resources"] = append([]string{}, resources...)
	}
	return event
}

// BuildRunEvent describes the hand-off to the bootstrap run step.
func BuildRunEvent(input EventInput) Event {
	return BuildEvent(VerbRun, input)
}

// BuildConfigLoadedEvent describes a config file merged into the options.
func BuildConfigLoadedEvent(input EventInput, path string) Event {
	event := BuildEvent(VerbConfigLoaded, input)
	event.Metadata = ensureMetadata(event.Metadata)
	event.Metadata["path"] = path
	return event
}

// BuildEvent constructs an application event for verb. The object ID falls
// back to the environment and then to the object type.
func BuildEvent(verb string, input EventInput) Event {
	metadata := maps.Clone(input.Metadata)
	environment := strings.TrimSpace(input.Environment)
	if environment != "" {
		metadata = ensureMetadata(metadata)
		metadata["environment"] = environment
	}

	objectID := strings.TrimSpace(input.ObjectID)
	if objectID == "" {
		objectID = environment
	}
	if objectID == "" {
		objectID = ObjectTypeApplication
	}

	return Event{
		Verb:        verb,
		ActorID:     strings.TrimSpace(input.ActorID),
		Environment: environment,
		ObjectType:  ObjectTypeApplication,
		ObjectID:    objectID,
		Channel:     strings.TrimSpace(input.Channel),
		Metadata:    metadata,
		OccurredAt:  input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
