// Package delivery sends replies and pushes through the LINE Messaging API.
package delivery

import (
	"context"
	"fmt"
	"strings"

	domerrors "github.com/garyellow/medreminder-linebot-go/internal/errors"
	"github.com/garyellow/medreminder-linebot-go/internal/lineutil"
	"github.com/garyellow/medreminder-linebot-go/internal/logger"
	"github.com/garyellow/medreminder-linebot-go/internal/metrics"
	"github.com/garyellow/medreminder-linebot-go/internal/ratelimit"
	"github.com/garyellow/medreminder-linebot-go/internal/storage"
	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// MaxMessagesPerRequest is the LINE limit for one reply or push.
const MaxMessagesPerRequest = 5

const (
	kindReply = "reply"
	kindPush  = "push"

	reminderSenderName = "提醒小幫手"
	reminderFormat     = "⏰ 服藥提醒\n\n💊 %s\n💊 劑量：%s\n⏰ 時間：%s"

	// TextDeliveryFailed is the user message attached to push failures.
	TextDeliveryFailed = "發送提醒失敗"
)

var deliverErr = domerrors.NewWrapper("delivery", "push_reminder")

// Client is the subset of the Messaging API used here.
// *messaging_api.MessagingApiAPI satisfies it.
type Client interface {
	ReplyMessage(req *messaging_api.ReplyMessageRequest) (*messaging_api.ReplyMessageResponse, error)
	PushMessage(req *messaging_api.PushMessageRequest, xLineRetryKey string) (*messaging_api.PushMessageResponse, error)
}

// Adapter wraps a Client with the shared rate limiter and delivery metrics.
type Adapter struct {
	client  Client
	limiter *ratelimit.Limiter
	metrics *metrics.Metrics
	logger  *logger.Logger
	sender  *messaging_api.Sender
}

// NewAdapter creates an adapter. limiter and metrics may be nil.
func NewAdapter(client Client, limiter *ratelimit.Limiter, m *metrics.Metrics, log *logger.Logger) *Adapter {
	return &Adapter{
		client:  client,
		limiter: limiter,
		metrics: m,
		logger:  log.WithModule("delivery"),
		sender:  lineutil.NewSender(reminderSenderName),
	}
}

// Reply answers an event with its single-use reply token. Empty batches are
// a no-op; messages past the per-request limit are dropped.
func (a *Adapter) Reply(ctx context.Context, replyToken string, msgs []messaging_api.MessageInterface) error {
	if len(msgs) == 0 {
		return nil
	}
	msgs = a.clamp(ctx, msgs)

	if err := a.wait(ctx); err != nil {
		a.record(kindReply, "rate_limited")
		return err
	}

	_, err := a.client.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   msgs,
	})
	if err != nil {
		a.record(kindReply, "error")
		if strings.Contains(err.Error(), "Invalid reply token") {
			a.logger.WithError(err).DebugContext(ctx, "Reply token already used or expired")
		}
		return fmt.Errorf("reply message: %w", err)
	}
	a.record(kindReply, "success")
	return nil
}

// Push sends messages to a user, group or room id. Each call carries a fresh
// retry key so LINE discards duplicates of the same request.
func (a *Adapter) Push(ctx context.Context, to string, msgs []messaging_api.MessageInterface) error {
	if len(msgs) == 0 {
		return nil
	}
	msgs = a.clamp(ctx, msgs)

	if err := a.wait(ctx); err != nil {
		a.record(kindPush, "rate_limited")
		return err
	}

	_, err := a.client.PushMessage(&messaging_api.PushMessageRequest{
		To:       to,
		Messages: msgs,
	}, uuid.NewString())
	if err != nil {
		a.record(kindPush, "error")
		return fmt.Errorf("push message: %w", err)
	}
	a.record(kindPush, "success")
	return nil
}

// DeliverReminder pushes the reminder card for r to chatID.
//
// Errors: domerrors.ErrInvalidInput for an empty chat id or an out-of-range
// time; domerrors.ErrDeliveryFailed when the push fails, inside a
// *domerrors.WrappedError carrying TextDeliveryFailed.
func (a *Adapter) DeliverReminder(ctx context.Context, chatID string, r storage.Reminder) error {
	if chatID == "" {
		return domerrors.NewValidationError("lineUserId", "required")
	}
	if r.ID == "" {
		return domerrors.NewValidationError("reminder.id", "required")
	}
	if !r.Valid() {
		return domerrors.NewValidationError("reminder", fmt.Sprintf("invalid time %d:%d", r.Hour, r.Minute))
	}

	if err := a.Push(ctx, chatID, []messaging_api.MessageInterface{a.ReminderMessage(r)}); err != nil {
		a.logger.WithError(err).
			WithField("reminder_id", r.ID).
			ErrorContext(ctx, "Failed to deliver reminder")
		return deliverErr.Wrap(fmt.Errorf("%w: %w", domerrors.ErrDeliveryFailed, err), TextDeliveryFailed)
	}

	a.logger.WithField("reminder_id", r.ID).InfoContext(ctx, "Reminder delivered")
	return nil
}

// ReminderMessage builds the pushed reminder card with taken/delay/skip
// buttons. The buttons are left out when r.ID does not fit in postback data.
func (a *Adapter) ReminderMessage(r storage.Reminder) *messaging_api.TextMessage {
	text := fmt.Sprintf(reminderFormat, r.MedicineName, r.Dosage, lineutil.FormatClock(r.Hour, r.Minute))
	acts := lineutil.ReminderActions(r.ID, "✅ 已服藥", "⏰ 延遲提醒", "⏭️ 跳過提醒")
	if acts == nil {
		a.logger.WithField("reminder_id_length", len(r.ID)).
			Warn("Reminder ID too long for postback data; buttons omitted")
	}
	return lineutil.NewTextMessageWithQuickReply(text, a.sender, acts...)
}

func (a *Adapter) clamp(ctx context.Context, msgs []messaging_api.MessageInterface) []messaging_api.MessageInterface {
	if len(msgs) <= MaxMessagesPerRequest {
		return msgs
	}
	a.logger.WithField("message_count", len(msgs)).
		WithField("limit", MaxMessagesPerRequest).
		WarnContext(ctx, "Message count exceeds limit; truncating")
	return msgs[:MaxMessagesPerRequest]
}

func (a *Adapter) wait(ctx context.Context) error {
	if a.limiter == nil {
		return nil
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

func (a *Adapter) record(kind, status string) {
	if a.metrics != nil {
		a.metrics.RecordDelivery(kind, status)
	}
}
