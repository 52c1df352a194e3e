// Package reminder implements today's reminder list and the delay/skip
// acknowledgements.
package reminder

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyellow/medreminder-linebot-go/internal/action"
	"github.com/garyellow/medreminder-linebot-go/internal/bot"
	"github.com/garyellow/medreminder-linebot-go/internal/lineutil"
	"github.com/garyellow/medreminder-linebot-go/internal/logger"
	"github.com/garyellow/medreminder-linebot-go/internal/storage"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Module constants
const (
	ModuleName = "reminder"
	senderName = "提醒小幫手"
)

// Reply texts.
const (
	todayHeader = "📋 今日提醒\n\n"
	todayEmpty  = "📋 今日提醒\n\n✅ 目前沒有設定任何提醒"
	delayedText = "⏰ 已延遲提醒\n\n提醒將在 30 分鐘後再次發送"
	skippedText = "⏭️ 已跳過提醒\n\n下次提醒時間：明天"
)

// AccountResolver maps a LINE user to an account ID.
type AccountResolver interface {
	Resolve(ctx context.Context, lineUserID string) (string, error)
}

// Handler handles reminder listing and the delay/skip buttons.
type Handler struct {
	accounts  AccountResolver
	reminders storage.ReminderRepository
	logger    *logger.Logger
	sender    *messaging_api.Sender
}

// NewHandler creates a new reminder handler.
func NewHandler(accounts AccountResolver, reminders storage.ReminderRepository, log *logger.Logger) *Handler {
	return &Handler{
		accounts:  accounts,
		reminders: reminders,
		logger:    log.WithModule(ModuleName),
		sender:    lineutil.NewSender(senderName),
	}
}

// Name returns the module name
func (h *Handler) Name() string {
	return ModuleName
}

// Verbs implements bot.Handler.
func (h *Handler) Verbs() []action.Verb {
	return []action.Verb{action.ShowTodayReminders, action.Delay, action.Skip}
}

// Handle implements bot.Handler.
func (h *Handler) Handle(ctx context.Context, req bot.Request) ([]messaging_api.MessageInterface, error) {
	switch req.Token.Verb {
	case action.Delay:
		return h.acknowledge(ctx, req, delayedText), nil
	case action.Skip:
		return h.acknowledge(ctx, req, skippedText), nil
	}
	return h.today(ctx, req.UserID)
}

func (h *Handler) today(ctx context.Context, lineUserID string) ([]messaging_api.MessageInterface, error) {
	accountID, err := h.accounts.Resolve(ctx, lineUserID)
	if err != nil {
		return nil, err
	}

	reminders, err := h.reminders.ListReminders(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}

	if len(reminders) == 0 {
		return []messaging_api.MessageInterface{
			lineutil.NewTextMessageWithQuickReply(todayEmpty, h.sender,
				lineutil.QuickReplyConnect(),
				lineutil.QuickReplyMainMenu(),
			),
		}, nil
	}

	var b strings.Builder
	b.WriteString(todayHeader)
	items := make([]lineutil.QuickReplyItem, 0, len(reminders)*3+1)
	for _, r := range reminders {
		clock := lineutil.FormatClock(r.Hour, r.Minute)
		fmt.Fprintf(&b, "💊 %s - %s\n   劑量：%s\n\n", clock, r.MedicineName, r.Dosage)
		acts := lineutil.ReminderActions(r.ID,
			fmt.Sprintf("✅ %s 已服藥", clock),
			fmt.Sprintf("⏰ %s 延遲", clock),
			fmt.Sprintf("⏭️ %s 跳過", clock),
		)
		if acts == nil {
			h.logger.WithField("reminder_id_length", len(r.ID)).
				WarnContext(ctx, "Reminder ID too long for postback data; buttons omitted")
		}
		items = append(items, acts...)
	}
	items = append(items, lineutil.QuickReplyMainMenu())

	// NewQuickReply keeps the first 13 items; with five or more reminders
	// the menu button and later reminders are cut.
	return []messaging_api.MessageInterface{
		lineutil.NewTextMessageWithQuickReply(b.String(), h.sender, items...),
	}, nil
}

// acknowledge confirms a delay or skip. Nothing is persisted or rescheduled.
// TODO: persist snoozes on the reminder once the scheduler reads them.
func (h *Handler) acknowledge(ctx context.Context, req bot.Request, text string) []messaging_api.MessageInterface {
	h.logger.WithField("verb", req.Token.Verb.String()).
		WithField("reminder_id", req.Token.Target).
		InfoContext(ctx, "Reminder acknowledged")

	return []messaging_api.MessageInterface{
		lineutil.NewTextMessageWithQuickReply(text, h.sender,
			lineutil.QuickReplyToday(),
			lineutil.QuickReplyMainMenu(),
		),
	}
}
