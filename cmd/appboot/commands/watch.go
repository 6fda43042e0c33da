package commands

import (
	"fmt"

	"github.com/goliatone/go-appboot"
	"github.com/goliatone/go-appboot/pkg/watch"
	"github.com/spf13/cobra"
)

func newWatchCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the effective options whenever a config file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := s.application(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := render(out, s.settings.Output, app.Options().ToAny()); err != nil {
				return err
			}

			watcher := watch.New(app,
				watch.WithLogger(s.logger.Zerolog()),
				watch.OnReload(func(app *appboot.Application, err error) {
					if err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "reload failed: %v\n", err)
						return
					}
					if err := render(out, s.settings.Output, app.Options().ToAny()); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "render: %v\n", err)
					}
				}),
			)
			return watcher.Run(cmd.Context())
		},
	}
}
