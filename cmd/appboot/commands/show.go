package commands

import (
	"fmt"

	"github.com/goliatone/go-appboot/layering"
	"github.com/spf13/cobra"
)

func newShowCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := s.application(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), s.settings.Output, app.Options().ToAny())
		},
	}
}

func newGetCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "get <path>",
		Short: "Print the option at a dotted path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.application(cmd.Context())
			if err != nil {
				return err
			}
			value, ok := layering.Lookup(app.Options(), args[0])
			if !ok {
				return fmt.Errorf("option %q not found", args[0])
			}
			return render(cmd.OutOrStdout(), s.settings.Output, value.Any())
		},
	}
}

func newTraceCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "trace <path>",
		Short: "Show which layer supplied the option at a dotted path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.application(cmd.Context())
			if err != nil {
				return err
			}
			_, trace, err := app.Trace(args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), s.settings.Output, trace)
		},
	}
}

func newDescribeCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "List every option path with its type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := s.application(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), s.settings.Output, app.Describe())
		},
	}
}
