package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goliatone/go-appboot"
	"github.com/goliatone/go-appboot/pkg/logging"
	"github.com/spf13/cobra"
)

const (
	flagEnv      = "env"
	flagConfig   = "config"
	flagInclude  = "include"
	flagOutput   = "output"
	flagEngine   = "engine"
	flagLogLevel = "log-level"
)

// session carries the state shared by subcommands.
type session struct {
	settings Settings
	logger   *logging.Logger
	environ  map[string]string
}

// Execute runs the root command.
func Execute(ctx context.Context, version, commit string) error {
	return NewRootCommand(version, commit, nil).ExecuteContext(ctx)
}

// NewRootCommand builds the command tree. environ replaces the process
// environment when non-nil.
func NewRootCommand(version, commit string, environ map[string]string) *cobra.Command {
	if environ == nil {
		environ = processEnviron()
	}
	s := &session{environ: environ}

	rootCmd := &cobra.Command{
		Use:   "appboot",
		Short: "Inspect layered application options",
		Long: `appboot loads config files for an environment, merges them under inline
options and reports the effective options, their provenance and the result of
expressions evaluated against them.

Settings come from flags, then APPBOOT_* environment variables, then defaults.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings(cmd.Flags(), s.environ)
			if err != nil {
				return err
			}
			s.settings = settings
			s.logger = logging.NewWriter(cmd.ErrOrStderr(), settings.Log)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP(flagEnv, "e", "", "environment section to load (default production)")
	flags.StringSliceP(flagConfig, "c", nil, "config files, weakest first")
	flags.StringSliceP(flagInclude, "I", nil, "directories searched for relative config files")
	flags.StringP(flagOutput, "o", "", "output format: yaml or json (default yaml)")
	flags.String(flagLogLevel, "", "log level (default warn)")

	rootCmd.AddCommand(newShowCommand(s))
	rootCmd.AddCommand(newGetCommand(s))
	rootCmd.AddCommand(newTraceCommand(s))
	rootCmd.AddCommand(newEvalCommand(s))
	rootCmd.AddCommand(newDescribeCommand(s))
	rootCmd.AddCommand(newWatchCommand(s))

	return rootCmd
}

// application builds the Application described by the settings.
func (s *session) application(ctx context.Context) (*appboot.Application, error) {
	options := map[string]any{}
	if len(s.settings.Config) > 0 {
		entries := make([]any, 0, len(s.settings.Config))
		for _, path := range s.settings.Config {
			entries = append(entries, path)
		}
		options[appboot.KeyConfig] = entries
	}

	return appboot.New(ctx, s.settings.Environment, options,
		appboot.WithLogger(s.logger),
		appboot.WithSearchPath(appboot.NewSearchPath(s.settings.IncludePaths...)),
	)
}

func processEnviron() map[string]string {
	out := map[string]string{}
	for _, pair := range os.Environ() {
		key, value, ok := strings.Cut(pair, "=")
		if ok && strings.HasPrefix(key, EnvPrefix) {
			out[key] = value
		}
	}
	return out
}
