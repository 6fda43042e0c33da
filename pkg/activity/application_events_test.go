package activity

import (
	"context"
	"testing"
	"time"
)

func TestBuildOptionsSetEventIncludesKeysAndLayers(t *testing.T) {
	meta := map[string]any{"custom": "value"}
	keys := []string{"bootstrap", "settings"}
	input := EventInput{
		ActorID:     " actor ",
		Environment: " production ",
		Channel:     "deploys",
		Metadata:    meta,
	}

	event := BuildOptionsSetEvent(input, keys, 3)

	if event.Verb != VerbOptionsSet {
		t.Fatalf("expected verb %s got %s", VerbOptionsSet, event.Verb)
	}
	if event.ObjectType != ObjectTypeApplication || event.ObjectID != "production" {
		t.Fatalf("unexpected object fields: %+v", event)
	}
	if event.ActorID != "actor" || event.Environment != "production" || event.Channel != "deploys" {
		t.Fatalf("unexpected identity fields: %+v", event)
	}
	if event.Metadata["environment"] != "production" || event.Metadata["layers"] != 3 {
		t.Fatalf("expected environment and layers metadata, got %+v", event.Metadata)
	}
	gotKeys, ok := event.Metadata["keys"].([]string)
	if !ok || len(gotKeys) != 2 || gotKeys[0] != "bootstrap" {
		t.Fatalf("expected keys metadata, got %v", event.Metadata["keys"])
	}
	gotKeys[0] = "changed"
	if keys[0] != "bootstrap" {
		t.Fatalf("expected input keys untouched, got %v", keys)
	}
	if _, ok := meta["environment"]; ok {
		t.Fatalf("expected input metadata untouched, got %v", meta)
	}
}

func TestBuildEventFallsBackToObjectType(t *testing.T) {
	event := BuildRunEvent(EventInput{})
	if event.ObjectID != ObjectTypeApplication {
		t.Fatalf("expected fallback object ID %q, got %q", ObjectTypeApplication, event.ObjectID)
	}
	if event.Metadata != nil {
		t.Fatalf("expected no metadata, got %+v", event.Metadata)
	}
}

func TestBuildBootstrapEventOmitsEmptyResources(t *testing.T) {
	all := BuildBootstrapEvent(EventInput{Environment: "testing"}, nil)
	if _, ok := all.Metadata["resources"]; ok {
		t.Fatalf("expected no resources metadata, got %+v", all.Metadata)
	}

	named := BuildBootstrapEvent(EventInput{ObjectID: "api"}, []string{"db"})
	if named.ObjectID != "api" {
		t.Fatalf("expected explicit object ID, got %q", named.ObjectID)
	}
	resources, ok := named.Metadata["resources"].([]string)
	if !ok || len(resources) != 1 || resources[0] != "db" {
		t.Fatalf("expected resources metadata, got %v", named.Metadata["resources"])
	}
}

func TestBuildConfigLoadedEventWorksWithEmitter(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture})
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	event := BuildConfigLoadedEvent(EventInput{Environment: "staging", OccurredAt: at}, "configs/app.yaml")
	if err := emitter.Emit(context.Background(), event); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(capture.Events()) != 1 {
		t.Fatalf("expected capture to record event, got %d", len(capture.Events()))
	}
	got := capture.Events()[0]
	if got.Verb != VerbConfigLoaded || got.Metadata["path"] != "configs/app.yaml" {
		t.Fatalf("unexpected event: %+v", got)
	}
	if got.Channel != DefaultChannel || !got.OccurredAt.Equal(at) {
		t.Fatalf("expected default channel and timestamp, got %+v", got)
	}
}
