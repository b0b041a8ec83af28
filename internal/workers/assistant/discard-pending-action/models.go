package discardpendingaction

import "assistant-workers/internal/assistant/mutation"

type Input struct {
	UserID string `json:"userId"`
}

type Output struct {
	Discarded bool             `json:"discarded"`
	Reply     string           `json:"reply"`
	Outcome   mutation.Outcome `json:"mutationOutcome"`
}
