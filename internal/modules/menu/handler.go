// Package menu implements the navigation replies: greeting, main menu,
// usage guide and app connection instructions.
package menu

import (
	"context"
	"fmt"

	"github.com/garyellow/medreminder-linebot-go/internal/action"
	"github.com/garyellow/medreminder-linebot-go/internal/bot"
	"github.com/garyellow/medreminder-linebot-go/internal/lineutil"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Module constants
const (
	ModuleName = "menu"
	senderName = "藥品提醒助手"
)

// Reply texts.
const (
	greetingText = "您好！我是您的藥品提醒助手。\n\n請選擇您需要的功能："
	mainMenuText = "🏥 藥品提醒助手\n\n請選擇您需要的功能："

	helpText = "❓ 使用說明\n\n" +
		"📋 今日提醒：\n• 查看今日所有服藥提醒\n• 點擊按鈕確認服藥\n\n" +
		"💊 記錄服藥：\n• 查看最近服藥記錄\n• 了解服藥狀況\n\n" +
		"📊 查看記錄：\n• 查看詳細服藥記錄\n• 追蹤服藥歷史\n\n" +
		"👤 帳戶資訊：\n• 查看帳戶狀態\n• 統計資訊\n\n" +
		"🔗 連接 App：\n• 與手機 App 同步\n• 雙向資料同步"

	connectTextFormat = "🔗 連接 App 說明\n\n" +
		"📱 在您的 App 中：\n1. 點擊「LINE 設定」\n2. 選擇「使用測試帳戶」\n3. 或輸入您的 LINE ID\n\n" +
		"💡 連接後即可：\n• 同步接收提醒\n• 雙向記錄服藥\n• 查看完整記錄\n\n" +
		"🆔 您的 LINE ID：\n%s"
)

// Handler answers the navigation verbs. It needs no store access.
type Handler struct {
	sender *messaging_api.Sender
}

// NewHandler creates a new menu handler.
func NewHandler() *Handler {
	return &Handler{sender: lineutil.NewSender(senderName)}
}

// Name returns the module name
func (h *Handler) Name() string {
	return ModuleName
}

// Verbs implements bot.Handler.
func (h *Handler) Verbs() []action.Verb {
	return []action.Verb{action.Greeting, action.ShowMainMenu, action.ShowHelp, action.ConnectApp}
}

// Handle implements bot.Handler.
func (h *Handler) Handle(_ context.Context, req bot.Request) ([]messaging_api.MessageInterface, error) {
	var msg *messaging_api.TextMessage

	switch req.Token.Verb {
	case action.Greeting:
		msg = lineutil.NewTextMessageWithQuickReply(greetingText, h.sender, coreActions()...)
	case action.ShowHelp:
		msg = lineutil.NewTextMessageWithQuickReply(helpText, h.sender,
			lineutil.QuickReplyToday(),
			lineutil.QuickReplyConnect(),
			lineutil.QuickReplyMainMenu(),
		)
	case action.ConnectApp:
		msg = lineutil.NewTextMessageWithQuickReply(fmt.Sprintf(connectTextFormat, req.UserID), h.sender,
			lineutil.QuickReplyToday(),
			lineutil.QuickReplyRecords(),
			lineutil.QuickReplyMainMenu(),
		)
	default:
		msg = lineutil.NewTextMessageWithQuickReply(mainMenuText, h.sender,
			append(coreActions(), lineutil.QuickReplyHelp())...,
		)
	}

	return []messaging_api.MessageInterface{msg}, nil
}

// coreActions are the five entry points offered by the greeting and menu.
func coreActions() []lineutil.QuickReplyItem {
	return []lineutil.QuickReplyItem{
		lineutil.QuickReplyToday(),
		lineutil.QuickReplyRecordMedicine(),
		lineutil.QuickReplyRecords(),
		lineutil.QuickReplyAccount(),
		lineutil.QuickReplyConnect(),
	}
}
