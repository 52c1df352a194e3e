package menu

import (
	"context"
	"strings"
	"testing"

	"github.com/garyellow/medreminder-linebot-go/internal/action"
	"github.com/garyellow/medreminder-linebot-go/internal/bot"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handle(t *testing.T, verb action.Verb, userID string) *messaging_api.TextMessage {
	t.Helper()
	msgs, err := NewHandler().Handle(context.Background(), bot.Request{
		UserID: userID,
		Token:  action.Token{Verb: verb},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	msg, ok := msgs[0].(*messaging_api.TextMessage)
	require.True(t, ok)
	return msg
}

func quickReplyData(msg *messaging_api.TextMessage) []string {
	if msg.QuickReply == nil {
		return nil
	}
	data := make([]string, 0, len(msg.QuickReply.Items))
	for _, item := range msg.QuickReply.Items {
		data = append(data, item.Action.(*messaging_api.PostbackAction).Data)
	}
	return data
}

func TestHandle_Greeting(t *testing.T) {
	t.Parallel()
	msg := handle(t, action.Greeting, "U1")

	assert.Equal(t, "您好！我是您的藥品提醒助手。\n\n請選擇您需要的功能：", msg.Text)
	assert.Equal(t, []string{
		"action=show_today_reminders",
		"action=record_medicine",
		"action=show_records",
		"action=show_account",
		"action=connect_app",
	}, quickReplyData(msg))
	assert.Equal(t, senderName, msg.Sender.Name)
}

func TestHandle_MainMenu(t *testing.T) {
	t.Parallel()
	msg := handle(t, action.ShowMainMenu, "U1")

	assert.Equal(t, "🏥 藥品提醒助手\n\n請選擇您需要的功能：", msg.Text)
	data := quickReplyData(msg)
	require.Len(t, data, 6)
	assert.Equal(t, "action=show_help", data[5])
}

func TestHandle_Help(t *testing.T) {
	t.Parallel()
	msg := handle(t, action.ShowHelp, "U1")

	assert.True(t, strings.HasPrefix(msg.Text, "❓ 使用說明\n\n📋 今日提醒：\n"))
	assert.True(t, strings.HasSuffix(msg.Text, "🔗 連接 App：\n• 與手機 App 同步\n• 雙向資料同步"))
	assert.Equal(t, []string{"action=show_today_reminders", "action=connect_app", "action=show_main_menu"}, quickReplyData(msg))
}

func TestHandle_ConnectApp(t *testing.T) {
	t.Parallel()
	msg := handle(t, action.ConnectApp, "Uabc123")

	assert.True(t, strings.HasPrefix(msg.Text, "🔗 連接 App 說明\n\n"))
	assert.True(t, strings.HasSuffix(msg.Text, "🆔 您的 LINE ID：\nUabc123"))
	assert.Equal(t, []string{"action=show_today_reminders", "action=show_records", "action=show_main_menu"}, quickReplyData(msg))
}

func TestVerbs(t *testing.T) {
	t.Parallel()
	assert.ElementsMatch(t,
		[]action.Verb{action.Greeting, action.ShowMainMenu, action.ShowHelp, action.ConnectApp},
		NewHandler().Verbs(),
	)
}
