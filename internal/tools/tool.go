package tools

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Tool is a capability the model may invoke by name.
type Tool interface {
	Name() string
	Description() string
	// Parameters is the JSON schema of the argument object.
	Parameters() map[string]any
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// FuncTool adapts a function taking a typed argument struct into a Tool.
// The struct's json and jsonschema tags define the parameter schema.
type FuncTool[T any] struct {
	name        string
	description string
	schema      *jsonschema.Schema
	parameters  map[string]any
	fn          func(ctx context.Context, args T) (string, error)
}

func NewFuncTool[T any](name, description string, fn func(ctx context.Context, args T) (string, error)) (*FuncTool[T], error) {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}

	var zero T
	schema := reflector.Reflect(&zero)

	parameters, err := schemaToMap(schema)
	if err != nil {
		return nil, errors.Wrapf(err, "could not build schema for tool '%s'", name)
	}

	return &FuncTool[T]{
		name:        name,
		description: description,
		schema:      schema,
		parameters:  parameters,
		fn:          fn,
	}, nil
}

func (t *FuncTool[T]) Name() string {
	return t.name
}

func (t *FuncTool[T]) Description() string {
	return t.description
}

func (t *FuncTool[T]) Parameters() map[string]any {
	return t.parameters
}

// Execute validates args against the reflected schema, decodes them into T
// and calls the wrapped function.
func (t *FuncTool[T]) Execute(ctx context.Context, args map[string]any) (string, error) {
	if err := validateArgs(t.schema, args); err != nil {
		return "", errors.WithStack(err)
	}

	var typed T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &typed,
	})
	if err != nil {
		return "", errors.WithStack(err)
	}

	if err := decoder.Decode(args); err != nil {
		return "", errors.Wrap(err, "could not decode arguments")
	}

	return t.fn(ctx, typed)
}

func schemaToMap(schema *jsonschema.Schema) (map[string]any, error) {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var parameters map[string]any
	if err := json.Unmarshal(data, &parameters); err != nil {
		return nil, errors.WithStack(err)
	}

	delete(parameters, "$schema")
	delete(parameters, "$id")

	return parameters, nil
}

func validateArgs(schema *jsonschema.Schema, args map[string]any) error {
	var merr *multierror.Error

	for _, key := range schema.Required {
		if value, exists := args[key]; !exists || value == nil {
			merr = multierror.Append(merr, errors.Errorf("missing required argument '%s'", key))
		}
	}

	if schema.Properties != nil {
		for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
			value, exists := args[pair.Key]
			if !exists || value == nil {
				continue
			}
			if !matchesType(pair.Value.Type, value) {
				merr = multierror.Append(merr, errors.Errorf("argument '%s' must be of type %s", pair.Key, pair.Value.Type))
			}
		}
	}

	if merr == nil {
		return nil
	}

	merr.ErrorFormat = func(errs []error) string {
		messages := make([]string, len(errs))
		for i, err := range errs {
			messages[i] = err.Error()
		}
		return strings.Join(messages, "; ")
	}

	return merr
}

func matchesType(schemaType string, value any) bool {
	switch schemaType {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "number":
		switch value.(type) {
		case float64, float32, int, int64, json.Number:
			return true
		}
		return false
	case "integer":
		switch v := value.(type) {
		case int, int64, json.Number:
			return true
		case float64:
			return v == math.Trunc(v)
		}
		return false
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}

var _ Tool = &FuncTool[struct{}]{}
