package detectchatintent

import "assistant-workers/internal/assistant/intent"

type Input struct {
	Message string `json:"message"`
	Role    string `json:"role"`
	UserID  string `json:"userId"`
}

// Route tells the process which branch handles the turn.
type Route string

const (
	RouteReply    Route = "reply"
	RouteCommit   Route = "commit"
	RouteDiscard  Route = "discard"
	RouteMutation Route = "mutation"
	RouteContext  Route = "context"
	RouteGeneral  Route = "general"
)

type Output struct {
	Intents          []intent.ID       `json:"intents"`
	PrimaryIntent    intent.ID         `json:"primaryIntent"`
	Entities         intent.Entities   `json:"entities"`
	Confidence       intent.Confidence `json:"confidence"`
	Source           intent.Source     `json:"detectionSource"`
	Reply            string            `json:"reply,omitempty"`
	RequiresContext  bool              `json:"requiresContext"`
	HasPendingAction bool              `json:"hasPendingAction"`
	Route            Route             `json:"route"`
}
