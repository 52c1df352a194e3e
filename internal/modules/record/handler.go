// Package record implements medicine record history and the "taken" button.
package record

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyellow/medreminder-linebot-go/internal/action"
	"github.com/garyellow/medreminder-linebot-go/internal/bot"
	domerrors "github.com/garyellow/medreminder-linebot-go/internal/errors"
	"github.com/garyellow/medreminder-linebot-go/internal/lineutil"
	"github.com/garyellow/medreminder-linebot-go/internal/logger"
	"github.com/garyellow/medreminder-linebot-go/internal/metrics"
	"github.com/garyellow/medreminder-linebot-go/internal/storage"
	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Module constants
const (
	ModuleName = "record"
	senderName = "服藥記錄小幫手"

	// takenNote marks records created from a chat button.
	takenNote = "透過 LINE 記錄"
)

const (
	historyHeader = "📊 最近服藥記錄\n\n"
	historyEmpty  = "📊 服藥記錄\n\n📝 目前沒有服藥記錄"
	missingTime   = "未記錄時間"
	takenFormat   = "✅ 已記錄服藥\n\n💊 %s\n💊 劑量：%s\n⏰ 時間：%s"
)

// AccountResolver maps a LINE user to an account ID.
type AccountResolver interface {
	Resolve(ctx context.Context, lineUserID string) (string, error)
}

// Store is the slice of storage the record module needs.
type Store interface {
	GetReminder(ctx context.Context, accountID, reminderID string) (*storage.Reminder, error)
	AppendRecord(ctx context.Context, rec *storage.MedicineRecord) error
	RecentRecords(ctx context.Context, accountID string, limit int) ([]storage.MedicineRecord, error)
}

// Handler lists medicine records and records taken doses.
type Handler struct {
	accounts   AccountResolver
	store      Store
	metrics    *metrics.Metrics
	logger     *logger.Logger
	sender     *messaging_api.Sender
	loc        *time.Location
	maxRecords int
	now        func() time.Time
}

// NewHandler creates a record handler. Records are dated in loc; a nil loc
// falls back to Asia/Taipei. metrics may be nil.
func NewHandler(accounts AccountResolver, store Store, m *metrics.Metrics, log *logger.Logger, loc *time.Location, maxRecords int) *Handler {
	if loc == nil {
		loc = lineutil.GetTaipeiLocation()
	}
	if maxRecords < 1 {
		maxRecords = 5
	}
	return &Handler{
		accounts:   accounts,
		store:      store,
		metrics:    m,
		logger:     log.WithModule(ModuleName),
		sender:     lineutil.NewSender(senderName),
		loc:        loc,
		maxRecords: maxRecords,
		now:        time.Now,
	}
}

// Name returns the module name
func (h *Handler) Name() string {
	return ModuleName
}

// Verbs implements bot.Handler.
func (h *Handler) Verbs() []action.Verb {
	return []action.Verb{action.RecordMedicine, action.ShowRecords, action.Taken}
}

// Handle implements bot.Handler.
func (h *Handler) Handle(ctx context.Context, req bot.Request) ([]messaging_api.MessageInterface, error) {
	accountID, err := h.accounts.Resolve(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if req.Token.Verb == action.Taken {
		return h.taken(ctx, accountID, req.Token.Target)
	}
	return h.history(ctx, accountID)
}

func (h *Handler) history(ctx context.Context, accountID string) ([]messaging_api.MessageInterface, error) {
	records, err := h.store.RecentRecords(ctx, accountID, h.maxRecords)
	if err != nil {
		return nil, fmt.Errorf("recent records: %w", err)
	}

	if len(records) == 0 {
		return []messaging_api.MessageInterface{
			lineutil.NewTextMessageWithQuickReply(historyEmpty, h.sender,
				lineutil.QuickReplyToday(),
				lineutil.QuickReplyMainMenu(),
			),
		}, nil
	}

	var b strings.Builder
	b.WriteString(historyHeader)
	for _, rec := range records {
		clock := rec.Time
		if clock == "" {
			clock = missingTime
		}
		fmt.Fprintf(&b, "📅 %s %s\n💊 %s\n💊 劑量：%s\n", lineutil.FormatDisplayDate(rec.Date), clock, rec.MedicineName, rec.Dosage)
		if rec.Notes != "" {
			fmt.Fprintf(&b, "📝 備註：%s\n", rec.Notes)
		}
		b.WriteString("\n")
	}

	return []messaging_api.MessageInterface{
		lineutil.NewTextMessageWithQuickReply(b.String(), h.sender,
			lineutil.QuickReplyToday(),
			lineutil.QuickReplyRecordMedicine(),
			lineutil.QuickReplyMainMenu(),
		),
	}, nil
}

// taken appends one record for the reminder. Repeated taps append again.
func (h *Handler) taken(ctx context.Context, accountID, reminderID string) ([]messaging_api.MessageInterface, error) {
	reminder, err := h.store.GetReminder(ctx, accountID, reminderID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, domerrors.ErrReminderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reminder: %w", err)
	}

	now := h.now().In(h.loc)
	rec := &storage.MedicineRecord{
		ID:           uuid.NewString(),
		AccountID:    accountID,
		MedicineName: reminder.MedicineName,
		Dosage:       reminder.Dosage,
		Date:         now.Format(lineutil.RecordDateLayout),
		Time:         now.Format(lineutil.RecordClockLayout),
		Notes:        takenNote,
		CreatedAt:    now,
	}
	if err := h.store.AppendRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("append record: %w", err)
	}
	if h.metrics != nil {
		h.metrics.RecordMedicineRecord()
	}

	h.logger.WithField("reminder_id", reminderID).
		WithField("record_id", rec.ID).
		InfoContext(ctx, "Medicine record created")

	text := fmt.Sprintf(takenFormat, rec.MedicineName, rec.Dosage, rec.Time)
	return []messaging_api.MessageInterface{
		lineutil.NewTextMessageWithQuickReply(text, h.sender,
			lineutil.QuickReplyToday(),
			lineutil.QuickReplyRecords(),
			lineutil.QuickReplyMainMenu(),
		),
	}, nil
}
