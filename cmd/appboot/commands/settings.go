package commands

import (
	"fmt"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/goliatone/go-appboot/pkg/logging"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read by the CLI.
const EnvPrefix = "APPBOOT_"

// Settings drives how the CLI builds the application.
type Settings struct {
	Environment  string         `env:"ENVIRONMENT" validate:"required"`
	Config       []string       `env:"CONFIG" envSeparator:","`
	IncludePaths []string       `env:"INCLUDE_PATHS" envSeparator:","`
	Output       string         `env:"OUTPUT" validate:"oneof=yaml json"`
	Engine       string         `env:"ENGINE" validate:"oneof=expr cel js"`
	Log          logging.Config `envPrefix:"LOG_"`
}

func defaultSettings() Settings {
	return Settings{
		Environment: "production",
		Output:      "yaml",
		Engine:      "expr",
		Log:         logging.Config{Level: "warn", Format: "console"},
	}
}

// loadSettings resolves settings with flags over environment variables over
// defaults. Only flags set on the command line take part.
func loadSettings(flags *pflag.FlagSet, environ map[string]string) (Settings, error) {
	fromFlags, err := flagSettings(flags)
	if err != nil {
		return Settings{}, err
	}

	var fromEnv Settings
	if err := env.ParseWithOptions(&fromEnv, env.Options{Prefix: EnvPrefix, Environment: environ}); err != nil {
		return Settings{}, fmt.Errorf("read environment: %w", err)
	}

	out := fromFlags
	for _, layer := range []Settings{fromEnv, defaultSettings()} {
		if err := mergo.Merge(&out, layer); err != nil {
			return Settings{}, fmt.Errorf("merge settings: %w", err)
		}
	}

	if err := validator.New().Struct(out); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return out, nil
}

func flagSettings(flags *pflag.FlagSet) (Settings, error) {
	var out Settings
	if flags == nil {
		return out, nil
	}
	var err error
	if flags.Changed(flagEnv) {
		if out.Environment, err = flags.GetString(flagEnv); err != nil {
			return out, err
		}
	}
	if flags.Changed(flagConfig) {
		if out.Config, err = flags.GetStringSlice(flagConfig); err != nil {
			return out, err
		}
	}
	if flags.Changed(flagInclude) {
		if out.IncludePaths, err = flags.GetStringSlice(flagInclude); err != nil {
			return out, err
		}
	}
	if flags.Changed(flagOutput) {
		if out.Output, err = flags.GetString(flagOutput); err != nil {
			return out, err
		}
	}
	if flags.Changed(flagEngine) {
		if out.Engine, err = flags.GetString(flagEngine); err != nil {
			return out, err
		}
	}
	if flags.Changed(flagLogLevel) {
		if out.Log.Level, err = flags.GetString(flagLogLevel); err != nil {
			return out, err
		}
	}
	return out, nil
}
