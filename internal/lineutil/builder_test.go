package lineutil

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuickReply_Truncates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		count int
		want  int
	}{
		{"empty", 0, 0},
		{"under limit", 5, 5},
		{"at limit", 13, 13},
		{"over limit", 16, 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			items := make([]QuickReplyItem, tt.count)
			for i := range items {
				items[i] = NewPostbackItem(fmt.Sprintf("item %d", i), fmt.Sprintf("action=%d", i))
			}
			qr := NewQuickReply(items)
			require.Len(t, qr.Items, tt.want)
			if tt.want > 0 {
				last := qr.Items[tt.want-1].Action.(*messaging_api.PostbackAction)
				assert.Equal(t, fmt.Sprintf("action=%d", tt.want-1), last.Data, "truncation keeps order")
			}
		})
	}
}

func TestNewTextMessage(t *testing.T) {
	t.Parallel()
	sender := NewSender("藥品提醒助手")

	msg := NewTextMessage("hello", sender)
	assert.Equal(t, "hello", msg.Text)
	assert.Equal(t, "藥品提醒助手", msg.Sender.Name)
	assert.Nil(t, msg.QuickReply)

	long := strings.Repeat("藥", MaxTextMessageLength+10)
	msg = NewTextMessage(long, nil)
	assert.Equal(t, MaxTextMessageLength, utf8.RuneCountInString(msg.Text))
	assert.True(t, strings.HasSuffix(msg.Text, "..."))
}

func TestNewTextMessageWithQuickReply(t *testing.T) {
	t.Parallel()

	msg := NewTextMessageWithQuickReply("menu", nil)
	assert.Nil(t, msg.QuickReply)

	msg = NewTextMessageWithQuickReply("menu", nil,
		NewPostbackItem("📋 今日提醒", "action=show_today_reminders"),
		NewPostbackItem("🏠 主選單", "action=show_main_menu"),
	)
	require.NotNil(t, msg.QuickReply)
	require.Len(t, msg.QuickReply.Items, 2)
	action := msg.QuickReply.Items[0].Action.(*messaging_api.PostbackAction)
	assert.Equal(t, "📋 今日提醒", action.Label)
	assert.Equal(t, "action=show_today_reminders", action.Data)
}

func TestNewPostbackAction_LabelLimit(t *testing.T) {
	t.Parallel()
	action := NewPostbackAction(strings.Repeat("長", 30), "action=x").(*messaging_api.PostbackAction)
	assert.Equal(t, MaxQuickReplyLabel, utf8.RuneCountInString(action.Label))
	assert.Equal(t, "action=x", action.Data)
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", TruncateRunes("abc", 0))
	assert.Equal(t, "abc", TruncateRunes("abc", 5))
	assert.Equal(t, "服藥", TruncateRunes("服藥提醒", 2))
}

func TestReminderActions(t *testing.T) {
	t.Parallel()
	items := ReminderActions("R1", "✅ 已服藥", "⏰ 延遲提醒", "⏭️ 跳過提醒")
	require.Len(t, items, 3)

	var data []string
	for _, item := range items {
		data = append(data, item.Action.(*messaging_api.PostbackAction).Data)
	}
	assert.Equal(t, []string{"action=taken_R1", "action=delay_R1", "action=skip_R1"}, data)
}

func TestReminderActions_PostbackLimit(t *testing.T) {
	t.Parallel()

	// "action=delay_" is the longest prefix at 13 bytes.
	fits := strings.Repeat("r", MaxPostbackData-13)
	assert.Len(t, ReminderActions(fits, "a", "b", "c"), 3)

	tooLong := fits + "r"
	assert.Nil(t, ReminderActions(tooLong, "a", "b", "c"))
}

func TestNavigationItems(t *testing.T) {
	t.Parallel()
	tests := []struct {
		item  QuickReplyItem
		label string
		data  string
	}{
		{QuickReplyToday(), "📋 今日提醒", "action=show_today_reminders"},
		{QuickReplyRecordMedicine(), "💊 記錄服藥", "action=record_medicine"},
		{QuickReplyRecords(), "📊 查看記錄", "action=show_records"},
		{QuickReplyAccount(), "👤 帳戶資訊", "action=show_account"},
		{QuickReplyConnect(), "🔗 連接 App", "action=connect_app"},
		{QuickReplyHelp(), "❓ 使用說明", "action=show_help"},
		{QuickReplyMainMenu(), "🏠 主選單", "action=show_main_menu"},
	}
	for _, tt := range tests {
		a := tt.item.Action.(*messaging_api.PostbackAction)
		assert.Equal(t, tt.label, a.Label)
		assert.Equal(t, tt.data, a.Data)
	}
}
