package commitpendingaction

import "assistant-workers/internal/common/validation"

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["userId"],
	"properties": {
		"userId": {"type": "string", "minLength": 1, "maxLength": 128}
	}
}`)
