package generator

import (
	"errors"
	"fmt"
)

var (
	// ErrUnparsableResponse means the model returned no structured call at all.
	ErrUnparsableResponse = errors.New("generator: response carries no structured call")
	// ErrGeneration wraps failures of the generation capability itself.
	ErrGeneration = errors.New("generator: generation failed")
)

// SchemaDriftError records why a structured call did not match its shape.
// It is attached to the recovered entity, not returned by Parse.
type SchemaDriftError struct {
	Shape Shape
	Cause error
}

func (e *SchemaDriftError) Error() string {
	return fmt.Sprintf("schema drift in %s: %v", e.Shape, e.Cause)
}

func (e *SchemaDriftError) Unwrap() error { return e.Cause }
