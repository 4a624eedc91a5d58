// internal/workers/payout/check-payout/schema.go
package checkpayout

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// inputSchema is the shape contract for the job variables. It guards the
// handler against structurally wrong payloads (numbers where strings belong,
// missing mandatory dimensions) before any field-level rule runs.
var inputSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"state":            map[string]interface{}{"type": "string", "minLength": 1},
		"rtoNumber":        map[string]interface{}{"type": "string"},
		"vehicleCategory":  map[string]interface{}{"type": "string", "minLength": 1},
		"vehicleType":      map[string]interface{}{"type": "string"},
		"make":             map[string]interface{}{"type": "string"},
		"model":            map[string]interface{}{"type": "string"},
		"fuelType":         map[string]interface{}{"type": "string"},
		"ccSlab":           map[string]interface{}{"type": "string"},
		"wattSlab":         map[string]interface{}{"type": "string"},
		"seatingCapacity":  map[string]interface{}{"type": "string"},
		"gvwSlab":          map[string]interface{}{"type": "string"},
		"gvwValue":         map[string]interface{}{"type": "string"},
		"vehicleAge":       map[string]interface{}{"type": "string"},
		"ncbSlab":          map[string]interface{}{"type": "string"},
		"cpaCover":         map[string]interface{}{"type": "string"},
		"zeroDepreciation": map[string]interface{}{"type": "string"},
		"trailer":          map[string]interface{}{"type": "string"},
		"businessType":     map[string]interface{}{"type": "string", "minLength": 1},
		"policyType":       map[string]interface{}{"type": "string", "minLength": 1},
	},
	"required": []string{"state", "vehicleCategory", "businessType", "policyType"},
}

// validateShape checks the raw job variables against the input schema and
// returns a single human-readable description of every violation.
func validateShape(raw []byte) error {
	schemaLoader := gojsonschema.NewGoLoader(inputSchema)
	documentLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if result.Valid() {
		return nil
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return fmt.Errorf("input shape invalid: %s", strings.Join(problems, "; "))
}
