package commands

import (
	"github.com/goliatone/go-appboot"
	"github.com/spf13/cobra"
)

func newEvalCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate an expression against the effective options",
		Long: `Evaluate an expression against the effective options. Top-level options are
bound by name; the whole tree is also available as "options" and the
environment name as "environment".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.application(cmd.Context())
			if err != nil {
				return err
			}
			evaluator, err := app.EngineEvaluator(s.settings.Engine)
			if err != nil {
				return err
			}
			value, err := evaluator.Evaluate(appboot.RuleContext{
				Snapshot:    app.Options().ToAny(),
				Environment: app.Environment(),
			}, args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), s.settings.Output, value)
		},
	}
	cmd.Flags().String(flagEngine, "", "expression engine: expr, cel or js (default expr)")
	return cmd
}
