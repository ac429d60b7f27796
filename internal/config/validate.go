package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/russolabs/russo/internal/models"
	"github.com/russolabs/russo/schemas"
)

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// suiteSchema is the compiled JSON Schema for suite files.
var suiteSchema *jsonschema.Schema

func init() {
	suiteSchema = mustCompileSchema(schemas.SuiteSchemaJSON, "suite.schema.json")
}

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	var schemaDoc any
	if err := json.Unmarshal([]byte(raw), &schemaDoc); err != nil {
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

// ValidateSuiteBytes validates raw YAML bytes against the suite schema.
func ValidateSuiteBytes(data []byte) []string {
	var yamlDoc any
	if err := yaml.Unmarshal(data, &yamlDoc); err != nil {
		return []string{fmt.Sprintf("YAML parse error: %v", err)}
	}
	return validateAgainstSchema(suiteSchema, yamlDoc)
}

// ValidateExpectedArgs checks every expected call's arguments against the
// JSON schema of the tool it names, and that each named tool is declared.
func ValidateExpectedArgs(tools []models.ToolDefinition, scenarios []Scenario) []string {
	compiled := map[string]*jsonschema.Schema{}
	declared := map[string]bool{}
	var errs []string

	for _, tool := range tools {
		declared[tool.Name] = true
		if len(tool.Schema) == 0 {
			continue
		}
		sch, err := compileToolSchema(tool)
		if err != nil {
			errs = append(errs, fmt.Sprintf("tool %q: invalid schema: %v", tool.Name, err))
			continue
		}
		compiled[tool.Name] = sch
	}

	for _, sc := range scenarios {
		for _, e := range sc.Expect {
			if !declared[e.Tool] {
				errs = append(errs, fmt.Sprintf("scenario %q expects undeclared tool %q", sc.ID, e.Tool))
				continue
			}
			sch, ok := compiled[e.Tool]
			if !ok {
				continue
			}
			// Round-trip through JSON so YAML scalar types match what the
			// schema validator expects.
			args := normalizeJSON(e.Args)
			if err := sch.Validate(args); err != nil {
				for _, msg := range flattenSchemaError(err) {
					errs = append(errs, fmt.Sprintf("scenario %q, tool %q: %s", sc.ID, e.Tool, msg))
				}
			}
		}
	}
	return errs
}

func compileToolSchema(tool models.ToolDefinition) (*jsonschema.Schema, error) {
	doc := normalizeJSON(tool.Schema)
	compiler := jsonschema.NewCompiler()
	name := tool.Name + ".tool.json"
	if err := compiler.AddResource(name, doc); err != nil {
		return nil, err
	}
	return compiler.Compile(name)
}

func validateAgainstSchema(schema *jsonschema.Schema, instance any) []string {
	err := schema.Validate(normalizeJSON(instance))
	if err == nil {
		return nil
	}
	return flattenSchemaError(err)
}

func flattenSchemaError(err error) []string {
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

// normalizeJSON re-encodes a YAML-decoded value through encoding/json so
// numbers and nested maps take the types the schema validator expects.
func normalizeJSON(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

func joinErrors(errs []string) string {
	return strings.Join(errs, "\n  ")
}
