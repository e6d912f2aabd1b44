package configschema

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/vitaliisemenov/alert-history/internal/value"
)

// Parse decodes data in format ("json" or "yaml") into a root NodeDoc
// and validates it with struct-tag rules (identifier syntax, required
// fields, enum membership). It does not build a compiled tree; callers
// pass the result to ToNodeConfig and then matcher.TreeBuilder.Build,
// which performs the identifier/uniqueness/buildability checks spec.md
// §4.8 additionally requires.
func Parse(format string, data []byte) (*NodeDoc, error) {
	jsonData, err := toJSON(format, data)
	if err != nil {
		return nil, err
	}

	var doc NodeDoc
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, fmt.Errorf("configschema: decode: %w", err)
	}

	if err := validateDoc(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func toJSON(format string, data []byte) ([]byte, error) {
	switch format {
	case "json":
		return data, nil
	case "yaml":
		var root yaml.Node
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("configschema: decode yaml: %w", err)
		}
		if len(root.Content) == 0 {
			return []byte("null"), nil
		}
		// Route through value.Value (not map[string]interface{}) so mapping
		// keys keep the order they have in the source YAML: value.Object's
		// MarshalJSON walks Keys() in insertion order, map[string]interface{}
		// would discard it before json.Marshal ever sees the document.
		v, err := valueFromYAMLNode(root.Content[0])
		if err != nil {
			return nil, fmt.Errorf("configschema: yaml to json bridge: %w", err)
		}
		jsonData, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("configschema: yaml to json bridge: %w", err)
		}
		return jsonData, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// valueFromYAMLNode converts a decoded yaml.Node into a value.Value,
// preserving mapping key order and resolving YAML scalar tags into the
// same Null/Bool/Int/Float/String sub-cases JSON decoding produces.
func valueFromYAMLNode(node *yaml.Node) (value.Value, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return value.Null(), nil
		}
		return valueFromYAMLNode(node.Content[0])
	case yaml.AliasNode:
		return valueFromYAMLNode(node.Alias)
	case yaml.ScalarNode:
		return valueFromYAMLScalar(node)
	case yaml.SequenceNode:
		items := make([]value.Value, len(node.Content))
		for i, item := range node.Content {
			v, err := valueFromYAMLNode(item)
			if err != nil {
				return value.Value{}, err
			}
			items[i] = v
		}
		return value.Array(items), nil
	case yaml.MappingNode:
		obj := value.NewObject()
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode := node.Content[i]
			valNode := node.Content[i+1]
			if keyNode.Kind != yaml.ScalarNode {
				return value.Value{}, fmt.Errorf("configschema: non-scalar mapping key at line %d", keyNode.Line)
			}
			v, err := valueFromYAMLNode(valNode)
			if err != nil {
				return value.Value{}, err
			}
			obj.Set(keyNode.Value, v)
		}
		return value.ObjectVal(obj), nil
	default:
		return value.Value{}, fmt.Errorf("configschema: unsupported yaml node kind %d at line %d", node.Kind, node.Line)
	}
}

func valueFromYAMLScalar(node *yaml.Node) (value.Value, error) {
	switch node.Tag {
	case "!!null":
		return value.Null(), nil
	case "!!bool":
		b, err := strconv.ParseBool(node.Value)
		if err != nil {
			return value.Value{}, fmt.Errorf("configschema: invalid bool %q at line %d", node.Value, node.Line)
		}
		return value.Bool(b), nil
	case "!!int":
		if i, err := strconv.ParseInt(node.Value, 10, 64); err == nil {
			return value.Int(i), nil
		}
		if u, err := strconv.ParseUint(node.Value, 10, 64); err == nil {
			return value.Uint(u), nil
		}
		return value.Value{}, fmt.Errorf("configschema: invalid int %q at line %d", node.Value, node.Line)
	case "!!float":
		f, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return value.Value{}, fmt.Errorf("configschema: invalid float %q at line %d", node.Value, node.Line)
		}
		return value.Float(f), nil
	default:
		return value.String(node.Value), nil
	}
}

var validateInstance = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("identifier", validateIdentifierTag)
	return v
}

func validateDoc(doc *NodeDoc) error {
	err := validateInstance.Struct(doc)
	if err == nil {
		return nil
	}
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("configschema: validate: %w", err)
	}

	out := make(ValidationErrors, 0, len(validationErrs))
	for _, fe := range validationErrs {
		out = append(out, &ValidationError{
			Field:   fe.Namespace(),
			Tag:     fe.Tag(),
			Message: fe.Error(),
		})
	}
	return out
}
