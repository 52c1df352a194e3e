package account

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/garyellow/medreminder-linebot-go/internal/action"
	"github.com/garyellow/medreminder-linebot-go/internal/bot"
	domerrors "github.com/garyellow/medreminder-linebot-go/internal/errors"
	"github.com/garyellow/medreminder-linebot-go/internal/logger"
	"github.com/garyellow/medreminder-linebot-go/internal/storage"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup map[string]storage.Account

func (f fakeLookup) Lookup(_ context.Context, lineUserID string) (*storage.Account, error) {
	acct, ok := f[lineUserID]
	if !ok {
		return nil, domerrors.ErrAccountNotFound
	}
	return &acct, nil
}

type fakeCounter struct {
	reminders, records int
	err                error
}

func (f fakeCounter) CountReminders(context.Context, string) (int, error) {
	return f.reminders, f.err
}

func (f fakeCounter) CountRecords(context.Context, string) (int, error) {
	return f.records, f.err
}

func handle(t *testing.T, lookup fakeLookup, counter fakeCounter, userID string) ([]messaging_api.MessageInterface, error) {
	t.Helper()
	h := NewHandler(lookup, counter, logger.NewWithWriter("error", io.Discard), nil)
	return h.Handle(context.Background(), bot.Request{UserID: userID, Token: action.Token{Verb: action.ShowAccount}})
}

func TestHandle_AccountInfo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		createdAt   time.Time
		wantCreated string
	}{
		// 2025-12-31 20:00 UTC is already January 1st in Taipei.
		{"created date in local zone", time.Date(2025, 12, 31, 20, 0, 0, 0, time.UTC), "2026/1/1"},
		{"missing created date", time.Time{}, "未知"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			lookup := fakeLookup{"U1": {ID: "A1", LineUserID: "U1", CreatedAt: tt.createdAt}}

			msgs, err := handle(t, lookup, fakeCounter{reminders: 3, records: 12}, "U1")
			require.NoError(t, err)
			require.Len(t, msgs, 1)
			msg := msgs[0].(*messaging_api.TextMessage)

			assert.Equal(t, "👤 帳戶資訊\n\n"+
				"📱 LINE ID: U1\n"+
				"🆔 帳戶 ID: A1\n"+
				"📅 建立時間: "+tt.wantCreated+"\n"+
				"💊 提醒數量: 3 個\n"+
				"📊 服藥記錄: 12 筆\n"+
				"🔗 連接狀態: ✅ 已連接\n\n"+
				"💡 提示：您可以在 App 中管理提醒和查看詳細記錄。", msg.Text)
			require.NotNil(t, msg.QuickReply)
			assert.Len(t, msg.QuickReply.Items, 3)
		})
	}
}

func TestHandle_NotConnected(t *testing.T) {
	t.Parallel()
	_, err := handle(t, fakeLookup{}, fakeCounter{}, "U-unlinked")
	require.ErrorIs(t, err, domerrors.ErrAccountNotFound)
}

func TestHandle_CountFailure(t *testing.T) {
	t.Parallel()
	lookup := fakeLookup{"U1": {ID: "A1"}}
	counter := fakeCounter{err: domerrors.NewStoreError("sqlite", "CountRecords", errors.New("locked"))}

	_, err := handle(t, lookup, counter, "U1")
	require.ErrorIs(t, err, domerrors.ErrStoreUnavailable)
}
