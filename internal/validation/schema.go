// Package validation checks dataset records and rubric files against the
// embedded JSON schemas before any model is called.
package validation

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

var (
	//go:embed schemas/activation_case.schema.json
	activationCaseSchemaJSON []byte

	//go:embed schemas/effectiveness_case.schema.json
	effectivenessCaseSchemaJSON []byte

	//go:embed schemas/rubric.schema.json
	rubricSchemaJSON []byte
)

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

var (
	activationCaseSchema    = mustCompileSchema(activationCaseSchemaJSON, "activation_case.schema.json")
	effectivenessCaseSchema = mustCompileSchema(effectivenessCaseSchemaJSON, "effectiveness_case.schema.json")
	rubricSchema            = mustCompileSchema(rubricSchemaJSON, "rubric.schema.json")
)

func mustCompileSchema(raw []byte, name string) *jsonschema.Schema {
	schemaDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// ValidateActivationCase validates one JSON-encoded activation case.
func ValidateActivationCase(data []byte) []string {
	return validateJSONBytes(activationCaseSchema, data)
}

// ValidateEffectivenessCase validates one JSON-encoded effectiveness case.
func ValidateEffectivenessCase(data []byte) []string {
	return validateJSONBytes(effectivenessCaseSchema, data)
}

// ValidateActivationRecord validates an activation case that was decoded
// from another format, such as a CSV row.
func ValidateActivationRecord(record map[string]any) []string {
	return validateAgainstSchema(activationCaseSchema, convertToJSONCompatible(record))
}

// ValidateRubricBytes validates raw rubric YAML.
func ValidateRubricBytes(data []byte) []string {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return []string{fmt.Sprintf("YAML parse error: %v", err)}
	}
	return validateAgainstSchema(rubricSchema, convertToJSONCompatible(doc))
}

func validateJSONBytes(schema *jsonschema.Schema, data []byte) []string {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return []string{fmt.Sprintf("JSON parse error: %v", err)}
	}
	return validateAgainstSchema(schema, doc)
}

func validateAgainstSchema(schema *jsonschema.Schema, instance any) []string {
	err := schema.Validate(instance)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}

// convertToJSONCompatible turns typed slices into []any so the validator
// sees plain JSON shapes.
func convertToJSONCompatible(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v2 := range val {
			result[k] = convertToJSONCompatible(v2)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v2 := range val {
			result[i] = convertToJSONCompatible(v2)
		}
		return result
	case []string:
		result := make([]any, len(val))
		for i, s := range val {
			result[i] = s
		}
		return result
	default:
		return val
	}
}
