package notification

import (
	"context"
	"log/slog"
)

// Message is a fire-and-forget notification to an employee or an admin
// audience. Delivery (push, email) is an external collaborator; the engine
// only dispatches.
type Message struct {
	RecipientID string
	Title       string
	Body        string
	Data        map[string]interface{}
}

// Dispatcher hands messages to the delivery collaborator. Errors are the
// dispatcher's problem; callers never block on delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message)
}

// LogDispatcher is the default dispatcher: it records the message and moves
// on. Wire a real push/email implementation in deployments that need one.
type LogDispatcher struct{}

func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, msg Message) {
	slog.Info("notification dispatched",
		"recipient_id", msg.RecipientID,
		"title", msg.Title,
	)
}
