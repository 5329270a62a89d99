// Package errwrap holds the small set of error helpers shared by the compiler,
// the rewrite pass and the interpreter.
package errwrap

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Wrapf annotates err with a formatted message. A nil err stays nil.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// Append accumulates err onto reterr. Either side may be nil, so callers can
// use it as a running `reterr += err` while walking a list of checks.
func Append(reterr, err error) error {
	if reterr == nil {
		return err
	}
	if err == nil {
		return reterr
	}
	return multierror.Append(reterr, err)
}

// Errors flattens an error built with Append back into its parts.
func Errors(err error) []error {
	if err == nil {
		return nil
	}
	if merr, ok := err.(*multierror.Error); ok {
		return merr.WrappedErrors()
	}
	return []error{err}
}

// Cause returns the innermost error of a chain built with Wrapf.
func Cause(err error) error {
	return errors.Cause(err)
}

// String returns the message of err, or the empty string when err is nil.
func String(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
