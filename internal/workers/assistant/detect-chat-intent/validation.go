package detectchatintent

import "assistant-workers/internal/common/validation"

// Other process variables ride along with the job, so extra keys are allowed.
var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["message"],
	"properties": {
		"message": {"type": "string", "maxLength": 4000},
		"role":    {"type": "string", "maxLength": 32},
		"userId":  {"type": "string", "maxLength": 128}
	}
}`)
