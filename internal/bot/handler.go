// Package bot classifies inbound LINE events and routes them to the reply
// handler registered for the resulting action verb.
package bot

import (
	"context"

	"github.com/garyellow/medreminder-linebot-go/internal/action"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Request is one classified event, ready for a handler.
type Request struct {
	// UserID is the LINE user ID of the sender.
	UserID string

	// Token is the decoded action. Target is set for taken/delay/skip.
	Token action.Token

	// Origin is "text" or "postback".
	Origin string
}

// Request origins.
const (
	OriginText     = "text"
	OriginPostback = "postback"
)

// Handler defines the interface that all reply modules implement.
type Handler interface {
	// Name identifies the module in logs and metrics.
	Name() string

	// Verbs lists the actions this handler answers.
	Verbs() []action.Verb

	// Handle produces the reply for one request.
	//
	// Returning domerrors.ErrStoreUnavailable, ErrAccountNotFound or
	// ErrReminderNotFound (wrapped or not) makes the dispatcher reply with
	// the matching fixed message. Any other error drops the event silently.
	Handle(ctx context.Context, req Request) ([]messaging_api.MessageInterface, error)
}
