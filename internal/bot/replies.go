package bot

import (
	"errors"

	domerrors "github.com/garyellow/medreminder-linebot-go/internal/errors"
	"github.com/garyellow/medreminder-linebot-go/internal/lineutil"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

const systemSenderName = "系統小幫手"

// Fixed replies for expected failure states.
const (
	TextStoreUnavailable = "❌ 資料庫連接失敗，請稍後再試"
	TextAccountNotFound  = "❌ 找不到您的帳戶，請先在 App 中連接 LINE"
	TextReminderNotFound = "❌ 找不到該提醒"
)

// ErrorReply returns the fixed reply for a domain error, or nil when the
// error is unexpected and the event should be dropped.
func ErrorReply(err error) []messaging_api.MessageInterface {
	sender := lineutil.NewSender(systemSenderName)

	switch {
	case errors.Is(err, domerrors.ErrStoreUnavailable):
		return []messaging_api.MessageInterface{
			lineutil.NewTextMessage(TextStoreUnavailable, sender),
		}
	case errors.Is(err, domerrors.ErrAccountNotFound):
		return []messaging_api.MessageInterface{
			lineutil.NewTextMessageWithQuickReply(TextAccountNotFound, sender,
				lineutil.QuickReplyConnect(),
				lineutil.QuickReplyMainMenu(),
			),
		}
	case errors.Is(err, domerrors.ErrReminderNotFound):
		return []messaging_api.MessageInterface{
			lineutil.NewTextMessageWithQuickReply(TextReminderNotFound, sender,
				lineutil.QuickReplyToday(),
				lineutil.QuickReplyMainMenu(),
			),
		}
	}
	return nil
}
