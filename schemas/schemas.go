// Package schemas embeds the JSON Schemas that validate user-facing
// configuration files.
package schemas

import _ "embed"

// SuiteSchemaJSON is the JSON Schema for suite YAML files.
//
//go:embed suite.schema.json
var SuiteSchemaJSON string
