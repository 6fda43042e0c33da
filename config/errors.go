package config

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownFormat indicates a config path whose extension has no decoder.
	ErrUnknownFormat = errors.New("config: unknown config type")
	// ErrUnreadable indicates the config source could not be read.
	ErrUnreadable = errors.New("config: source unreadable")
	// ErrMalformed indicates the decoder rejected the document.
	ErrMalformed = errors.New("config: malformed document")
	// ErrSectionNotFound indicates the requested environment section is missing.
	ErrSectionNotFound = errors.New("config: section not found")
	// ErrCircularExtends indicates a section inheritance loop.
	ErrCircularExtends = errors.New("config: circular section inheritance")
)

// Error decorates configuration failures with the operation and the path that
// triggered them.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Path == "" {
		return fmt.Sprintf("config: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("config: %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Wrap returns err decorated with op and path. Errors that are already an
// *Error keep their original metadata, filling only blank fields.
func Wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var cfgErr *Error
	if errors.As(err, &cfgErr) {
		if cfgErr.Op == "" {
			cfgErr.Op = op
		}
		if cfgErr.Path == "" {
			cfgErr.Path = path
		}
		return err
	}
	return &Error{Op: op, Path: path, Err: err}
}
