package commitpendingaction

import (
	"assistant-workers/internal/assistant/intent"
	"assistant-workers/internal/assistant/mutation"
)

type Input struct {
	UserID string `json:"userId"`
}

type Output struct {
	Committed  bool             `json:"committed"`
	Reply      string           `json:"reply"`
	Outcome    mutation.Outcome `json:"mutationOutcome"`
	ActionType intent.ID        `json:"actionType,omitempty"`
	ProductID  string           `json:"productId,omitempty"`
}
