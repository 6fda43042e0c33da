package state

import (
	"context"
	"fmt"

	"github.com/goliatone/go-appboot/config"
	"github.com/goliatone/go-appboot/layering"
)

// Loader serves persisted snapshots as config documents. The config path is
// the snapshot domain; the environment snapshot is merged over the
// domain-wide one.
func Loader(store Store) config.Loader {
	resolver := Resolver{Store: store}
	return config.LoaderFunc(func(ctx context.Context, path, environment string) (layering.Map, error) {
		doc, ok, err := resolver.Resolve(ctx, path, environment)
		if err != nil {
			return nil, config.Wrap("load", path, fmt.Errorf("%w: %w", config.ErrUnreadable, err))
		}
		if !ok {
			return nil, config.Wrap("load", path, fmt.Errorf("%w: no snapshot for domain %q", config.ErrUnreadable, path))
		}
		return doc, nil
	})
}
