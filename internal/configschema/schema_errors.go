package configschema

import (
	"errors"
	"fmt"
)

// ErrUnknownFormat is returned by Parse for any format other than
// "json" or "yaml".
var ErrUnknownFormat = errors.New("configschema: unknown format")

// ErrUnknownOperatorType / ErrUnknownExtractorKind are returned during
// conversion to the compiled-tree config types when a Doc carries a
// type tag this module doesn't recognize.
var (
	ErrUnknownOperatorType  = errors.New("configschema: unknown operator type")
	ErrUnknownExtractorKind = errors.New("configschema: unknown extractor regex kind")
)

// ValidationError wraps a go-playground/validator failure with the
// offending field path. Field is the validator's namespace, built from
// Go struct field names (e.g. NodeDoc.Nodes[0].Name), not json tags.
type ValidationError struct {
	Field   string
	Tag     string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configschema: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a batch of ValidationError, returned by Parse when
// struct-tag validation fails after successful decoding.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "configschema: validation failed"
	}
	msg := e[0].Error()
	if len(e) > 1 {
		msg = fmt.Sprintf("%s (and %d more)", msg, len(e)-1)
	}
	return msg
}
