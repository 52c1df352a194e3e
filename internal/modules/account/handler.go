// Package account implements the account summary reply.
package account

import (
	"context"
	"fmt"
	"time"

	"github.com/garyellow/medreminder-linebot-go/internal/action"
	"github.com/garyellow/medreminder-linebot-go/internal/bot"
	"github.com/garyellow/medreminder-linebot-go/internal/lineutil"
	"github.com/garyellow/medreminder-linebot-go/internal/logger"
	"github.com/garyellow/medreminder-linebot-go/internal/storage"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"golang.org/x/sync/errgroup"
)

// Module constants
const (
	ModuleName = "account"
	senderName = "帳戶小幫手"
)

const (
	infoFormat = "👤 帳戶資訊\n\n" +
		"📱 LINE ID: %s\n" +
		"🆔 帳戶 ID: %s\n" +
		"📅 建立時間: %s\n" +
		"💊 提醒數量: %d 個\n" +
		"📊 服藥記錄: %d 筆\n" +
		"🔗 連接狀態: ✅ 已連接\n\n" +
		"💡 提示：您可以在 App 中管理提醒和查看詳細記錄。"
	unknownCreated = "未知"
)

// AccountLookup returns the account referencing a LINE user.
type AccountLookup interface {
	Lookup(ctx context.Context, lineUserID string) (*storage.Account, error)
}

// Counter counts an account's reminders and records.
type Counter interface {
	CountReminders(ctx context.Context, accountID string) (int, error)
	CountRecords(ctx context.Context, accountID string) (int, error)
}

// Handler renders the account summary.
type Handler struct {
	accounts AccountLookup
	counts   Counter
	logger   *logger.Logger
	sender   *messaging_api.Sender
	loc      *time.Location
}

// NewHandler creates an account handler. A nil loc falls back to Asia/Taipei.
func NewHandler(accounts AccountLookup, counts Counter, log *logger.Logger, loc *time.Location) *Handler {
	if loc == nil {
		loc = lineutil.GetTaipeiLocation()
	}
	return &Handler{
		accounts: accounts,
		counts:   counts,
		logger:   log.WithModule(ModuleName),
		sender:   lineutil.NewSender(senderName),
		loc:      loc,
	}
}

// Name returns the module name
func (h *Handler) Name() string {
	return ModuleName
}

// Verbs implements bot.Handler.
func (h *Handler) Verbs() []action.Verb {
	return []action.Verb{action.ShowAccount}
}

// Handle implements bot.Handler.
func (h *Handler) Handle(ctx context.Context, req bot.Request) ([]messaging_api.MessageInterface, error) {
	acct, err := h.accounts.Lookup(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	var reminders, records int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := h.counts.CountReminders(gctx, acct.ID)
		if err != nil {
			return fmt.Errorf("count reminders: %w", err)
		}
		reminders = n
		return nil
	})
	g.Go(func() error {
		n, err := h.counts.CountRecords(gctx, acct.ID)
		if err != nil {
			return fmt.Errorf("count records: %w", err)
		}
		records = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	created := unknownCreated
	if !acct.CreatedAt.IsZero() {
		created = acct.CreatedAt.In(h.loc).Format(lineutil.DisplayDateLayout)
	}

	text := fmt.Sprintf(infoFormat, req.UserID, acct.ID, created, reminders, records)
	return []messaging_api.MessageInterface{
		lineutil.NewTextMessageWithQuickReply(text, h.sender,
			lineutil.QuickReplyToday(),
			lineutil.QuickReplyRecords(),
			lineutil.QuickReplyMainMenu(),
		),
	}, nil
}
