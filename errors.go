package appboot

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-appboot/config"
)

var (
	// ErrInvalidOptions indicates New received a source that is neither a
	// config path, an options structure, nor a config provider.
	ErrInvalidOptions = errors.New("appboot: invalid options; must be a config path, a config provider, or a map")
	// ErrInvalidSettings indicates the settings option is not a map.
	ErrInvalidSettings = errors.New("appboot: settings must be a map")
	// ErrInvalidBootstrap indicates the bootstrap option has the wrong shape.
	ErrInvalidBootstrap = errors.New("appboot: invalid bootstrap information provided")
	// ErrBootstrapPathRequired indicates a bootstrap map without a path.
	ErrBootstrapPathRequired = errors.New("appboot: no bootstrap path provided")
	// ErrBootstrapNotFound indicates the bootstrap class could not be resolved.
	ErrBootstrapNotFound = errors.New("appboot: bootstrap class not found")
	// ErrResourceNotFound indicates a named resource has no registered
	// initializer.
	ErrResourceNotFound = errors.New("appboot: resource not found")
	// ErrCircularDependency indicates resources that bootstrap each other.
	ErrCircularDependency = errors.New("appboot: circular resource dependency")
	// ErrRunnerNotConfigured indicates Run was called on a bootstrap without a
	// run function.
	ErrRunnerNotConfigured = errors.New("appboot: run function not configured")
	// ErrNoEvaluator indicates no expression evaluator could be built.
	ErrNoEvaluator = errors.New("appboot: evaluator not configured")
	// ErrEmptyExpression indicates a blank expression was handed to an
	// evaluator.
	ErrEmptyExpression = errors.New("appboot: expression must not be empty")
)

// ConfigError carries the operation and location of a configuration failure.
// It is shared with the config package so loader failures and orchestration
// failures are matched with a single errors.As target.
type ConfigError = config.Error

func configError(op, path string, err error) error {
	return config.Wrap(op, path, err)
}

// EvaluationError captures evaluator metadata alongside the originating error.
type EvaluationError struct {
	Engine      string
	Expr        string
	Environment string
	Err         error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("appboot: %s evaluator %s environment=%s: %v", e.Engine, describeExpression(e.Expr), e.Environment, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluationError(engine, expr, environment string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Environment == "" {
			evalErr.Environment = environment
		}
		return evalErr
	}

	return &EvaluationError{
		Engine:      engine,
		Expr:        expr,
		Environment: environment,
		Err:         err,
	}
}
