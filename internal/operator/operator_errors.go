package operator

import "errors"

// Operator build errors. All are returned from Build, never at
// evaluation time — a compiled Operator never fails to evaluate.
var (
	// ErrUnknownType indicates a MatcherConfig named an operator kind this
	// build doesn't recognize.
	ErrUnknownType = errors.New("operator: unknown type")

	// ErrMissingOperand indicates and/or/not was given the wrong number of
	// child operators (and/or need at least one, not needs exactly one).
	ErrMissingOperand = errors.New("operator: missing operand")

	// ErrInvalidRegex indicates a regex operator's pattern failed to compile.
	ErrInvalidRegex = errors.New("operator: invalid regex pattern")

	// ErrInvalidAccessor indicates one of an operator's Accessor fields
	// failed to compile.
	ErrInvalidAccessor = errors.New("operator: invalid accessor")
)
