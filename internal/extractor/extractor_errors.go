package extractor

import "errors"

// Extraction failures (spec.md §4.3). An extractor failure never panics;
// it always surfaces as one of these via the returned error, which the
// caller (internal/rule) turns into a PartiallyMatched rule status.
var (
	// ErrNoValue indicates the `from` Accessor resolved to no value.
	ErrNoValue = errors.New("extractor: from accessor resolved to no value")

	// ErrNotCoercible indicates `from` resolved to a Null, Bool, Array or
	// Object, none of which is coerced to a string for extraction.
	ErrNotCoercible = errors.New("extractor: value not coercible to string")

	// ErrNoMatch indicates the regex found no match in the coerced string.
	ErrNoMatch = errors.New("extractor: regex did not match")

	// ErrGroupOutOfRange indicates group_match_idx named a capture group
	// the pattern doesn't have.
	ErrGroupOutOfRange = errors.New("extractor: capture group index out of range")

	// ErrModifierFailed indicates a modifier could not transform its input
	// (e.g. to_number on a non-numeric string, map with no default_value
	// for an unmapped key).
	ErrModifierFailed = errors.New("extractor: modifier failed")
)

// Build-time errors, returned from Build/BuildWithCompiler, never at extraction time.
var (
	// ErrInvalidRegex indicates the extractor's pattern failed to compile.
	ErrInvalidRegex = errors.New("extractor: invalid regex pattern")

	// ErrInvalidAccessor indicates `from` failed to compile as an Accessor.
	ErrInvalidAccessor = errors.New("extractor: invalid from accessor")

	// ErrInvalidModifier indicates an unknown modifier name.
	ErrInvalidModifier = errors.New("extractor: unknown modifier")

	// ErrInvalidModifierArgs indicates a modifier's own configuration is
	// malformed (e.g. replace with is_regex but an invalid pattern).
	ErrInvalidModifierArgs = errors.New("extractor: invalid modifier arguments")
)
