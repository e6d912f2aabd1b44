package configschema

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// validateIdentifierTag implements the "identifier" validator tag,
// enforcing spec.md §6's `^[a-zA-Z0-9_]+$` identifier syntax.
func validateIdentifierTag(fl validator.FieldLevel) bool {
	return identifierPattern.MatchString(fl.Field().String())
}
