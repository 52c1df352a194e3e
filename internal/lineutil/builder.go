// Package lineutil builds LINE Messaging API payloads within platform limits.
package lineutil

import (
	"unicode/utf8"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// QuickReplyItem represents an item in a quick reply.
type QuickReplyItem struct {
	ImageURL string
	Action   messaging_api.ActionInterface
}

// Action is an alias for the LINE SDK action interface for convenience.
type Action = messaging_api.ActionInterface

// NewSender returns the sender shown as the message author.
func NewSender(name string) *messaging_api.Sender {
	return &messaging_api.Sender{Name: TruncateRunes(name, MaxSenderNameLength)}
}

// NewTextMessage creates a text message, truncating past the LINE limit.
func NewTextMessage(text string, sender *messaging_api.Sender) *messaging_api.TextMessage {
	if utf8.RuneCountInString(text) > MaxTextMessageLength {
		text = TruncateRunes(text, MaxTextMessageLength-3) + "..."
	}
	return &messaging_api.TextMessage{
		Text:   text,
		Sender: sender,
	}
}

// NewTextMessageWithQuickReply creates a text message with quick reply items.
// Items past MaxQuickReplyItemCount are dropped.
func NewTextMessageWithQuickReply(text string, sender *messaging_api.Sender, items ...QuickReplyItem) *messaging_api.TextMessage {
	msg := NewTextMessage(text, sender)
	if len(items) > 0 {
		msg.QuickReply = NewQuickReply(items)
	}
	return msg
}

// NewQuickReply converts items into a quick reply, keeping at most
// MaxQuickReplyItemCount of them in order. Overflow is truncated, not paged.
func NewQuickReply(items []QuickReplyItem) *messaging_api.QuickReply {
	if len(items) > MaxQuickReplyItemCount {
		items = items[:MaxQuickReplyItemCount]
	}

	quickReplyItems := make([]messaging_api.QuickReplyItem, len(items))
	for i, item := range items {
		quickReplyItems[i] = messaging_api.QuickReplyItem{
			Action:   item.Action,
			ImageUrl: item.ImageURL,
		}
	}

	return &messaging_api.QuickReply{
		Items: quickReplyItems,
	}
}

// NewPostbackAction creates a postback action. The label is cut to the
// quick reply label limit; data is sent back verbatim.
func NewPostbackAction(label, data string) Action {
	return &messaging_api.PostbackAction{
		Label: TruncateRunes(label, MaxQuickReplyLabel),
		Data:  data,
	}
}

// NewPostbackItem is NewPostbackAction wrapped as a quick reply item.
func NewPostbackItem(label, data string) QuickReplyItem {
	return QuickReplyItem{Action: NewPostbackAction(label, data)}
}

// TruncateRunes returns at most maxRunes runes of text.
func TruncateRunes(text string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxRunes])
}
