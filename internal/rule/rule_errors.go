package rule

import (
	"errors"
	"fmt"
)

// Build-time errors, returned from Build, never at evaluation time.
var (
	// ErrInvalidName indicates a rule, variable, or action id failed the
	// `^[a-zA-Z0-9_]+$` identifier pattern.
	ErrInvalidName = errors.New("rule: invalid identifier")

	// ErrDuplicateVariable indicates two extractors in the same rule share
	// a name.
	ErrDuplicateVariable = errors.New("rule: duplicate extractor variable name")

	// ErrDuplicateAction indicates two action templates in the same rule
	// share an id.
	ErrDuplicateAction = errors.New("rule: duplicate action id")
)

// BuildError wraps a build-time failure with the offending path
// (`rule_name/variable_name` or `rule_name/action_id`), per spec.md §4.6
// "Surface errors with context".
type BuildError struct {
	Path string
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("rule: %s: %v", e.Path, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }
