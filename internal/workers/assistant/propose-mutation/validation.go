package proposemutation

import "assistant-workers/internal/common/validation"

// The detect worker's output is fed straight in, so unrelated keys are allowed.
var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["userId", "primaryIntent"],
	"properties": {
		"userId":        {"type": "string", "minLength": 1, "maxLength": 128},
		"primaryIntent": {"type": "string", "minLength": 1},
		"entities": {
			"type": "object",
			"properties": {
				"products": {"type": "array", "items": {"type": "string"}},
				"quantity": {"type": "integer", "minimum": 1}
			}
		}
	}
}`)
