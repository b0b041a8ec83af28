package proposemutation

import (
	"time"

	"assistant-workers/internal/assistant/intent"
	"assistant-workers/internal/assistant/mutation"
)

type Input struct {
	UserID   string          `json:"userId"`
	Intent   intent.ID       `json:"primaryIntent"`
	Entities intent.Entities `json:"entities"`
}

type Output struct {
	Accepted        bool             `json:"mutationAccepted"`
	RequiresConsent bool             `json:"requiresConsent"`
	Reply           string           `json:"reply"`
	Outcome         mutation.Outcome `json:"mutationOutcome"`
	PendingActionID string           `json:"pendingActionId,omitempty"`
	ProposedAt      *time.Time       `json:"proposedAt,omitempty"`
}
