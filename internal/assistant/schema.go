package assistant

import (
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/wolfman30/patient-search-assistant/internal/patients"
)

// SearchFunctionName is the only function the LLM may call.
const SearchFunctionName = "get_patients"

const searchFunctionDescription = "Search patient records. All parameters are optional; omit a parameter to leave it unconstrained. " +
	"Every field except GenderName matches as a case-insensitive substring. GenderName must match exactly."

// SearchFunction describes get_patients with one optional string property
// per filter field.
func SearchFunction() openai.FunctionDefinition {
	props := make(map[string]jsonschema.Definition, len(patients.Fields()))
	for _, spec := range patients.Specs() {
		props[string(spec.Field)] = jsonschema.Definition{
			Type:        jsonschema.String,
			Description: propertyDescription(spec),
		}
	}
	return openai.FunctionDefinition{
		Name:        SearchFunctionName,
		Description: searchFunctionDescription,
		Parameters: jsonschema.Definition{
			Type:       jsonschema.Object,
			Properties: props,
		},
	}
}

func propertyDescription(spec patients.FieldSpec) string {
	if spec.Match == patients.MatchExact {
		return fmt.Sprintf("%s (exact match)", spec.Description)
	}
	return fmt.Sprintf("%s (substring match)", spec.Description)
}

func searchTool() openai.Tool {
	def := SearchFunction()
	return openai.Tool{Type: openai.ToolTypeFunction, Function: &def}
}
