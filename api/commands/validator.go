package commands

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/dCMD/lib/query"
)

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

// MissingParameterError is returned by Build when required parameters were not set
type MissingParameterError struct {
	Command    string
	Parameters []string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("cannot build %s: missing required parameter(s) %s", e.Command, strings.Join(e.Parameters, ", "))
}

// InvalidParameterError is returned by Build when a parameter was set to a value
// that can never be served
type InvalidParameterError struct {
	Command   string
	Parameter string
	Err       error
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("cannot build %s: invalid %s: %v", e.Command, e.Parameter, e.Err)
}

func (e *InvalidParameterError) Unwrap() error {
	return e.Err
}

// --------------------------------------------------------------------------
// Validator
// --------------------------------------------------------------------------

// Validator collects the problems of a builder's parameters. Every builder
// creates one in Build:
//
//	return commands.NewValidator("fetch counter").
//		RequireLocation(b.loc).
//		Err()
type Validator struct {
	command string
	missing []string
	invalid *InvalidParameterError
}

// NewValidator creates a validator for the named command
func NewValidator(command string) *Validator {
	return &Validator{command: command}
}

// Require records name as missing unless ok
func (v *Validator) Require(name string, ok bool) *Validator {
	if !ok {
		v.missing = append(v.missing, name)
	}
	return v
}

// RequireString records name as missing if s is empty
func (v *Validator) RequireString(name, s string) *Validator {
	return v.Require(name, s != "")
}

// RequireNamespace records the empty parts of ns as missing
func (v *Validator) RequireNamespace(ns query.Namespace) *Validator {
	return v.
		RequireString("bucket type", ns.BucketType).
		RequireString("bucket", ns.Bucket)
}

// RequireLocation records the empty parts of loc as missing
func (v *Validator) RequireLocation(loc query.Location) *Validator {
	return v.
		RequireNamespace(loc.Namespace).
		RequireString("key", loc.Key)
}

// Check records name as invalid if err is not nil. Only the first invalid
// parameter is reported.
func (v *Validator) Check(name string, err error) *Validator {
	if err != nil && v.invalid == nil {
		v.invalid = &InvalidParameterError{Command: v.command, Parameter: name, Err: err}
	}
	return v
}

// Err returns a *MissingParameterError if anything is missing, else the first
// *InvalidParameterError, else nil
func (v *Validator) Err() error {
	switch {
	case len(v.missing) > 0:
		return &MissingParameterError{Command: v.command, Parameters: v.missing}
	case v.invalid != nil:
		return v.invalid
	default:
		return nil
	}
}
