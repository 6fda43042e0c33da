package appboot

import (
	"reflect"
	"testing"

	"github.com/goliatone/go-appboot/layering"
)

func TestDescribeReportsLeaves(t *testing.T) {
	app := mustNew(t, "production", map[string]any{
		"server": map[string]any{
			"port":  8080,
			"hosts": []any{"a", "b"},
			"tls":   map[string]any{},
		},
		"debug": false,
		"tags":  []any{},
		"name":  nil,
	})

	want := []FieldDescriptor{
		{Path: "debug", Type: "bool"},
		{Path: "name", Type: "nil"},
		{Path: "server.hosts", Type: "[]string"},
		{Path: "server.port", Type: "int"},
		{Path: "server.tls", Type: "map"},
		{Path: "tags", Type: "[]any"},
	}
	if got := app.Describe(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected descriptors\nwant %#v\ngot  %#v", want, got)
	}
}

func TestDescribeEmptyOptions(t *testing.T) {
	app := mustNew(t, "production", nil)
	got := app.Describe()
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty descriptor list, got %#v", got)
	}
	if DescribeOptions(layering.Map{}) != nil {
		t.Fatalf("expected nil for empty map")
	}
}
