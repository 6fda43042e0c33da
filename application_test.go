package appboot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/viper"

	"github.com/goliatone/go-appboot/config"
	"github.com/goliatone/go-appboot/layering"
	"github.com/goliatone/go-appboot/pkg/activity"
)

type staticProvider map[string]any

func (p staticProvider) AllSettings() map[string]any {
	return p
}

func TestNewAcceptsSupportedSources(t *testing.T) {
	v := viper.New()
	v.Set("Server.Port", 8080)

	cases := []struct {
		name   string
		source any
		key    string
		want   any
	}{
		{name: "untyped map", source: map[string]any{"name": "demo"}, key: "name", want: "demo"},
		{name: "layering map", source: layering.Map{"name": layering.Scalar("demo")}, key: "name", want: "demo"},
		{name: "provider", source: staticProvider{"name": "demo"}, key: "name", want: "demo"},
		{name: "viper", source: v, key: "server.port", want: 8080},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			app := mustNew(t, "production", tc.source)
			if got := scalarAt(t, app, tc.key); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			if app.Environment() != "production" {
				t.Fatalf("expected environment production, got %q", app.Environment())
			}
		})
	}
}

func TestNewWithoutSource(t *testing.T) {
	app := mustNew(t, "testing", nil)
	if len(app.Options()) != 0 {
		t.Fatalf("expected empty options, got %#v", app.Options())
	}
	if app.HasOption("anything") {
		t.Fatalf("expected no options")
	}
	if len(app.Layers()) != 0 {
		t.Fatalf("expected no layers, got %d", len(app.Layers()))
	}
}

func TestNewRejectsUnsupportedSource(t *testing.T) {
	app, err := New(context.Background(), "production", 42)
	if !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("expected ErrInvalidOptions, got %v", err)
	}
	if app != nil {
		t.Fatalf("expected nil application on error")
	}
}

func TestNewFromConfigPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "application.yaml")
	doc := []byte("production:\n  name: demo\n  db:\n    host: prod-db\nstaging:\n  _extends: production\n  db:\n    host: staging-db\n")
	if err := os.WriteFile(path, doc, 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	app := mustNew(t, "staging", path)
	if got := scalarAt(t, app, "name"); got != "demo" {
		t.Fatalf("expected inherited name, got %v", got)
	}
	if got := scalarAt(t, app, "db.host"); got != "staging-db" {
		t.Fatalf("expected staging override, got %v", got)
	}

	_, err := New(context.Background(), "qa", path)
	if !errors.Is(err, config.ErrSectionNotFound) {
		t.Fatalf("expected ErrSectionNotFound, got %v", err)
	}
}

func TestNewFromUnknownFormat(t *testing.T) {
	_, err := New(context.Background(), "production", "application.xml")
	cfgErr := requireConfigError(t, err, config.ErrUnknownFormat)
	if cfgErr.Path != "application.xml" {
		t.Fatalf("expected failing path recorded, got %q", cfgErr.Path)
	}
}

func TestOptionIndexIsCaseInsensitive(t *testing.T) {
	app := mustNew(t, "production", map[string]any{
		"Database": map[string]any{"Host": "db"},
		"debug":    true,
	})

	for _, key := range []string{"database", "DATABASE", "Database", "dAtAbAsE"} {
		if !app.HasOption(key) {
			t.Fatalf("expected HasOption(%q)", key)
		}
	}
	value, ok := app.Option("DEBUG")
	if !ok || value.Scalar() != true {
		t.Fatalf("expected debug=true, got %v ok=%v", value.Any(), ok)
	}
	if _, ok := app.Option("missing"); ok {
		t.Fatalf("expected missing option to be absent")
	}
	if app.OptionValue("missing") != nil {
		t.Fatalf("expected nil OptionValue for missing key")
	}
	if !reflect.DeepEqual(app.OptionKeys(), []string{"database", "debug"}) {
		t.Fatalf("unexpected keys %v", app.OptionKeys())
	}
	// Stored keys keep their casing.
	if _, ok := app.Options()["Database"]; !ok {
		t.Fatalf("expected original key casing preserved, got %v", app.Options().Keys())
	}
}

func TestOptionIndexCaseCollisionPicksLastSortedKey(t *testing.T) {
	app := mustNew(t, "production", map[string]any{"Foo": 1, "foo": 2})

	value, ok := app.Option("FOO")
	if !ok || value.Scalar() != 2 {
		t.Fatalf("expected foo (sorted last) to win, got %v", value.Any())
	}
	if len(app.OptionKeys()) != 1 {
		t.Fatalf("expected collapsed index, got %v", app.OptionKeys())
	}
}

func TestOptionsReturnsCopy(t *testing.T) {
	app := mustNew(t, "production", map[string]any{"server": map[string]any{"port": 80}})

	options := app.Options()
	options["server"].Map()["port"] = layering.Scalar(9999)
	delete(options, "server")

	if got := scalarAt(t, app, "server.port"); got != 80 {
		t.Fatalf("expected stored options untouched, got %v", got)
	}
}

func TestSetOptionsMergesConfigFilesUnderInlineOptions(t *testing.T) {
	loader := mapLoader(map[string]map[string]any{
		"base.yaml": {
			"name":   "base",
			"level":  "info",
			"nested": map[string]any{"a": 1, "b": 1},
			"hosts":  []any{"a", "b"},
		},
		"override.yaml": {
			"level":  "debug",
			"nested": map[string]any{"b": 2},
			"hosts":  []any{"c"},
		},
	})

	app := mustNew(t, "production", map[string]any{
		"config": []any{"base.yaml", "override.yaml"},
		"name":   "inline",
	}, WithLoader(loader))

	if got := scalarAt(t, app, "name"); got != "inline" {
		t.Fatalf("expected inline options to win, got %v", got)
	}
	if got := scalarAt(t, app, "level"); got != "debug" {
		t.Fatalf("expected later config to win, got %v", got)
	}
	if got := scalarAt(t, app, "nested.a"); got != 1 {
		t.Fatalf("expected nested key preserved, got %v", got)
	}
	if got := scalarAt(t, app, "nested.b"); got != 2 {
		t.Fatalf("expected nested override, got %v", got)
	}
	hosts, _ := app.Option("hosts")
	if !reflect.DeepEqual(hosts.Strings(), []string{"c"}) {
		t.Fatalf("expected sequence replaced wholesale, got %v", hosts.Strings())
	}
	if !app.HasOption("config") {
		t.Fatalf("expected config key retained")
	}

	layers := app.Layers()
	if len(layers) != 3 {
		t.Fatalf("expected 3 layers, got %d", len(layers))
	}
	if layers[0].Name != OptionsLayerName || layers[1].Source != "override.yaml" || layers[2].Source != "base.yaml" {
		t.Fatalf("unexpected layer order: %+v", layers)
	}
}

func TestSetOptionsSingleConfigPath(t *testing.T) {
	loader := mapLoader(map[string]map[string]any{
		"app.json": {"name": "file", "port": 80},
	})

	app := mustNew(t, "production", map[string]any{"Config": "app.json", "port": 8080}, WithLoader(loader))

	if got := scalarAt(t, app, "name"); got != "file" {
		t.Fatalf("expected file option, got %v", got)
	}
	if got := scalarAt(t, app, "port"); got != 8080 {
		t.Fatalf("expected inline override, got %v", got)
	}
}

func TestSetOptionsConditionalConfig(t *testing.T) {
	loader := mapLoader(map[string]map[string]any{
		"base.yaml":  {"log": "info"},
		"debug.yaml": {"log": "debug"},
		"beta.yaml":  {"beta": true},
	})
	source := map[string]any{
		"features": map[string]any{"beta": false},
		"config": []any{
			"base.yaml",
			map[string]any{"path": "debug.yaml", "when": "environment == 'development'"},
			map[string]any{"path": "beta.yaml", "when": "features.beta"},
		},
	}

	dev := mustNew(t, "development", source, WithLoader(loader))
	if got := scalarAt(t, dev, "log"); got != "debug" {
		t.Fatalf("expected debug config in development, got %v", got)
	}
	if dev.HasOption("beta") {
		t.Fatalf("expected beta config skipped")
	}

	prod := mustNew(t, "production", source, WithLoader(loader))
	if got := scalarAt(t, prod, "log"); got != "info" {
		t.Fatalf("expected base config in production, got %v", got)
	}
	if len(prod.Layers()) != 2 {
		t.Fatalf("expected skipped entries to add no layers, got %d", len(prod.Layers()))
	}
}

func TestSetOptionsNamedConfigEntries(t *testing.T) {
	loader := mapLoader(map[string]map[string]any{
		"a.json":     {"name": "first", "pool": 5},
		"b.json":     {"name": "second"},
		"debug.json": {"debug": true},
	})

	app := mustNew(t, "", map[string]any{
		"config": map[string]any{
			"second": "b.json",
			"first":  "a.json",
			"trace":  map[string]any{"path": "debug.json", "when": "false"},
		},
	}, WithLoader(loader))

	if got := scalarAt(t, app, "name"); got != "second" {
		t.Fatalf("expected entries applied in sorted key order, got %v", got)
	}
	if got := scalarAt(t, app, "pool"); got != 5 {
		t.Fatalf("expected first entry merged underneath, got %v", got)
	}
	if app.HasOption("debug") {
		t.Fatalf("expected conditional named entry skipped")
	}
	layers := app.Layers()
	if len(layers) != 3 || layers[1].Source != "b.json" || layers[2].Source != "a.json" {
		t.Fatalf("unexpected layers %+v", layers)
	}
}

func TestSetOptionsRejectsMalformedConfigEntries(t *testing.T) {
	cases := map[string]any{
		"number":            42,
		"entry number":      []any{1},
		"named non-path":    map[string]any{"main": 7},
		"named sequence":    map[string]any{"main": []any{"a.yaml"}},
		"nested sequence":   []any{[]any{"a"}},
		"non-string when":   map[string]any{"path": "a.yaml", "when": 5},
		"entry with empty path": []any{map[string]any{"path": ""}},
	}
	for name, value := range cases {
		value := value
		t.Run(name, func(t *testing.T) {
			_, err := New(context.Background(), "production", map[string]any{"config": value}, WithLoader(mapLoader(nil)))
			requireConfigError(t, err, ErrInvalidOptions)
		})
	}
}

func TestSetOptionsResolvesConfigAgainstSearchPath(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "shared.toml"), []byte("name = \"shared\"\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	app := mustNew(t, "", map[string]any{"config": "shared.toml"},
		WithSearchPath(NewSearchPath(dir)))

	if got := scalarAt(t, app, "name"); got != "shared" {
		t.Fatalf("expected config found on search path, got %v", got)
	}
	if got := app.Layers()[1].Source; got != "shared.toml" {
		t.Fatalf("expected layer source recorded, got %q", got)
	}
}

func TestSetOptionsConfigLoadFailure(t *testing.T) {
	_, err := New(context.Background(), "production", map[string]any{"config": "missing.yaml"}, WithLoader(mapLoader(nil)))
	cfgErr := requireConfigError(t, err, config.ErrUnreadable)
	if cfgErr.Op != "load" || cfgErr.Path != "missing.yaml" {
		t.Fatalf("unexpected error metadata: %+v", cfgErr)
	}
}

func TestSetOptionsReplacesPreviousOptions(t *testing.T) {
	app := mustNew(t, "production", map[string]any{"a": 1, "b": 2})

	if err := app.SetOptions(context.Background(), layering.Map{"c": layering.Scalar(3)}); err != nil {
		t.Fatalf("SetOptions: %v", err)
	}
	if app.HasOption("a") || !app.HasOption("c") {
		t.Fatalf("expected options replaced, got %v", app.OptionKeys())
	}
}

func TestSetOptionsDispatchesSettings(t *testing.T) {
	recorder := &settingsRecorder{}
	app := mustNew(t, "production", map[string]any{
		"Settings": map[string]any{
			"gc":    map[string]any{"percent": 50},
			"Env":   map[string]any{"APP_MODE": "strict"},
			"tags":  []any{"skipped"},
			"empty": nil,
		},
	}, WithSettingsApplier(recorder))

	want := map[string]any{"Env.APP_MODE": "strict", "gc.percent": 50}
	if !reflect.DeepEqual(recorder.values, want) {
		t.Fatalf("expected flattened settings %v, got %v", want, recorder.values)
	}
	if !reflect.DeepEqual(recorder.order, []string{"Env.APP_MODE", "gc.percent"}) {
		t.Fatalf("expected sorted application order, got %v", recorder.order)
	}
	if app.Settings() != SettingsApplier(recorder) {
		t.Fatalf("expected configured applier")
	}
}

func TestSetOptionsRejectsScalarSettings(t *testing.T) {
	_, err := New(context.Background(), "production", map[string]any{"settings": "fast"})
	requireConfigError(t, err, ErrInvalidSettings)
}

func TestSetOptionsSettingsFailure(t *testing.T) {
	applier := SettingsApplierFunc(func(key string, _ any) error {
		return errors.New("refused")
	})
	_, err := New(context.Background(), "production", map[string]any{
		"settings": map[string]any{"pool": map[string]any{"size": 4}},
	}, WithSettingsApplier(applier))

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Path != "pool.size" {
		t.Fatalf("expected failing setting in error, got %v", err)
	}
}

func TestSetOptionsDispatchesIncludePathsAndNamespaces(t *testing.T) {
	app := mustNew(t, "production", map[string]any{
		"includePaths":         []any{"/opt/app/lib", "/opt/shared"},
		"AUTOLOADERNAMESPACES": []any{"billing", "billing", "reports"},
	}, WithSearchPath(NewSearchPath("/usr/lib/app")))

	if got := app.SearchPath().Dirs(); !reflect.DeepEqual(got, []string{"/opt/app/lib", "/opt/shared", "/usr/lib/app"}) {
		t.Fatalf("expected include paths prepended, got %v", got)
	}
	if got := app.Autoloader().Namespaces(); !reflect.DeepEqual(got, []string{"billing", "reports"}) {
		t.Fatalf("expected namespaces registered once, got %v", got)
	}
}

func TestSetOptionsBootstrap(t *testing.T) {
	built := 0
	autoloader := NewAutoloader()
	if err := autoloader.Register(DefaultBootstrapClass, func(app *Application) (Bootstrapper, error) {
		built++
		return NewResourceBootstrap(app), nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	app := mustNew(t, "production", map[string]any{"bootstrap": "app/bootstrap.go"}, WithAutoloader(autoloader))
	if built != 1 {
		t.Fatalf("expected factory invoked once, got %d", built)
	}
	if got := app.BootstrapSource(); got != (BootstrapSource{Path: "app/bootstrap.go", Class: DefaultBootstrapClass}) {
		t.Fatalf("unexpected bootstrap source %+v", got)
	}

	if err := app.SetOptions(context.Background(), layering.FromMap(map[string]any{
		"bootstrap": map[string]any{"Path": "app/resources.go", "Class": ResourceBootstrapClass},
	})); err != nil {
		t.Fatalf("SetOptions: %v", err)
	}
	if got := app.BootstrapSource().Class; got != ResourceBootstrapClass {
		t.Fatalf("expected class from map, got %q", got)
	}
	if _, ok := app.GetBootstrap().(*ResourceBootstrap); !ok {
		t.Fatalf("expected ResourceBootstrap, got %T", app.GetBootstrap())
	}
}

func TestSetOptionsBootstrapErrors(t *testing.T) {
	cases := []struct {
		name   string
		value  any
		target error
	}{
		{name: "map without path", value: map[string]any{"class": ResourceBootstrapClass}, target: ErrBootstrapPathRequired},
		{name: "number", value: 7, target: ErrInvalidBootstrap},
		{name: "sequence", value: []any{"a", "b"}, target: ErrInvalidBootstrap},
		{name: "unknown class", value: map[string]any{"path": "x.go", "class": "Missing"}, target: ErrBootstrapNotFound},
		{name: "default class unregistered", value: "x.go", target: ErrBootstrapNotFound},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(context.Background(), "production", map[string]any{"bootstrap": tc.value})
			requireConfigError(t, err, tc.target)
		})
	}
}

func TestSetOptionsEmitsActivityAndLogs(t *testing.T) {
	capture := &activity.CaptureHook{}
	logs := &logRecorder{}
	loader := mapLoader(map[string]map[string]any{"base.yaml": {"name": "base"}})

	mustNew(t, "production", map[string]any{"config": "base.yaml", "debug": true},
		WithLoader(loader),
		WithActivityHooks(activity.Hooks{nil, capture}),
		WithActivityChannel("deploys"),
		WithActivityActor("cli"),
		WithLogger(logs),
	)

	if len(capture.Events()) != 2 {
		t.Fatalf("expected config.loaded and options.set events, got %+v", capture.Events())
	}
	loaded, set := capture.Events()[0], capture.Events()[1]
	if loaded.Verb != activity.VerbConfigLoaded || loaded.Metadata["path"] != "base.yaml" {
		t.Fatalf("unexpected config event %+v", loaded)
	}
	if set.Verb != activity.VerbOptionsSet || set.Channel != "deploys" || set.ActorID != "cli" || set.Environment != "production" {
		t.Fatalf("unexpected options event %+v", set)
	}
	if !reflect.DeepEqual(set.Metadata["keys"], []string{"config", "debug", "name"}) || set.Metadata["layers"] != 2 {
		t.Fatalf("unexpected options metadata %+v", set.Metadata)
	}

	options := logs.stage(StageOptions)
	if len(options) != 1 || options[0].Environment != "production" || options[0].Err != nil {
		t.Fatalf("unexpected options log entries %+v", options)
	}
	if configs := logs.stage(StageConfig); len(configs) != 1 || configs[0].Fields["path"] != "base.yaml" {
		t.Fatalf("unexpected config log entries %+v", configs)
	}
}

func TestActivityHookFailureIsLoggedNotReturned(t *testing.T) {
	logs := &logRecorder{}
	failing := activity.HookFunc(func(context.Context, activity.Event) error {
		return errors.New("sink down")
	})

	app := mustNew(t, "production", map[string]any{"a": 1}, WithActivityHooks(activity.Hooks{failing}), WithLogger(logs))
	if len(app.ActivityHooks()) != 1 {
		t.Fatalf("expected hook retained")
	}

	var failed bool
	for _, entry := range logs.stage(StageOptions) {
		if entry.Detail == "activity hook failed" && entry.Err != nil {
			failed = true
		}
	}
	if !failed {
		t.Fatalf("expected hook failure logged, got %+v", logs.entries)
	}
}

func TestReloadRereadsConfigFiles(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.yaml")
	if err := os.WriteFile(base, []byte("limits:\n  daily: 10\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	app := mustNew(t, "", map[string]any{"config": base, "name": "billing"})
	if files := app.ConfigFiles(); len(files) != 1 || files[0] != base {
		t.Fatalf("unexpected config files %v", files)
	}

	if err := os.WriteFile(base, []byte("limits:\n  daily: 25\n"), 0o600); err != nil {
		t.Fatalf("rewrite fixture: %v", err)
	}
	if err := app.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := scalarAt(t, app, "limits.daily"); got != 25 {
		t.Fatalf("expected reloaded value 25, got %v", got)
	}
	if got := scalarAt(t, app, "name"); got != "billing" {
		t.Fatalf("expected inline options kept, got %v", got)
	}
}

func TestReloadReplacesOptionIncludePaths(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "app.yaml")
	if err := os.WriteFile(source, []byte("includePaths:\n  - lib\n  - vendor\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	app := mustNew(t, "", source, WithSearchPath(NewSearchPath("/usr/lib/app")))
	want := []string{"lib", "vendor", "/usr/lib/app"}
	for i := 0; i < 3; i++ {
		if err := app.Reload(context.Background()); err != nil {
			t.Fatalf("reload %d: %v", i, err)
		}
		if got := app.SearchPath().Dirs(); !reflect.DeepEqual(got, want) {
			t.Fatalf("reload %d: expected %v, got %v", i, want, got)
		}
	}

	if err := os.WriteFile(source, []byte("includePaths:\n  - lib\n"), 0o600); err != nil {
		t.Fatalf("rewrite fixture: %v", err)
	}
	if err := app.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := app.SearchPath().Dirs(); !reflect.DeepEqual(got, []string{"lib", "/usr/lib/app"}) {
		t.Fatalf("expected removed include path dropped, got %v", got)
	}
}

func TestReloadRereadsSourceFile(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "app.json")
	if err := os.WriteFile(source, []byte(`{"name": "first"}`), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	app := mustNew(t, "", source)
	if files := app.ConfigFiles(); len(files) != 1 || files[0] != source {
		t.Fatalf("unexpected config files %v", files)
	}
	if err := os.WriteFile(source, []byte(`{"name": "second"}`), 0o600); err != nil {
		t.Fatalf("rewrite fixture: %v", err)
	}
	if err := app.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := scalarAt(t, app, "name"); got != "second" {
		t.Fatalf("expected reloaded source, got %v", got)
	}
}
