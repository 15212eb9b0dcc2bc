package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across services.
var (
	// ErrNotFound indicates a schema type, entity set or operation does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates a caller supplied an unusable argument.
	ErrInvalidInput = errors.New("invalid input")
)

// SchemaLoadError aborts schema initialisation. No partial schema is
// returned alongside it.
type SchemaLoadError struct {
	// Element names the CSDL element being processed, e.g. "EntityType user".
	Element string
	Reason  string
	Err     error
}

func (e *SchemaLoadError) Error() string {
	msg := "schema load"
	if e.Element != "" {
		msg += ": " + e.Element
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Err
}

// UnknownPrimitiveTypeError reports an Edm primitive outside the known vocabulary.
type UnknownPrimitiveTypeError struct {
	Type string
}

func (e *UnknownPrimitiveTypeError) Error() string {
	return fmt.Sprintf("unknown primitive type %q", e.Type)
}

// TypeResolutionError reports that a payload could not be matched to a schema type.
type TypeResolutionError struct {
	Discriminator string
	Context       string
	Reason        string
}

func (e *TypeResolutionError) Error() string {
	msg := "resolve type"
	if e.Discriminator != "" {
		msg += fmt.Sprintf(" (discriminator %q)", e.Discriminator)
	}
	if e.Context != "" {
		msg += fmt.Sprintf(" (context %q)", e.Context)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}
