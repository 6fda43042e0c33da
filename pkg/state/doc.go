// Package state persists option snapshots per domain and environment and
// exposes them as a config source.
//
// Store implementations only load and save a single snapshot for a single
// Ref. Resolver merges the domain-wide snapshot with environment snapshots
// and guards read-modify-write cycles with ETags.
//
// Data flow:
//
//	Store -> Resolver -> layering.MergeAll(...) -> layering.Map
//
// Loader adapts a Store to config.Loader so persisted snapshots can be listed
// in the config option of an appboot.Application:
//
//	app, err := appboot.New(ctx, "production", map[string]any{"config": "billing"},
//		appboot.WithLoader(state.Loader(store)))
package state
