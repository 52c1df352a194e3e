package lineutil

import "github.com/garyellow/medreminder-linebot-go/internal/action"

// Navigation quick reply items shared by every module.

// QuickReplyToday opens today's reminders.
func QuickReplyToday() QuickReplyItem {
	return NewPostbackItem("📋 今日提醒", action.Encode(action.ShowTodayReminders, ""))
}

// QuickReplyRecordMedicine opens the recent records list.
func QuickReplyRecordMedicine() QuickReplyItem {
	return NewPostbackItem("💊 記錄服藥", action.Encode(action.RecordMedicine, ""))
}

// QuickReplyRecords opens the recent records list.
func QuickReplyRecords() QuickReplyItem {
	return NewPostbackItem("📊 查看記錄", action.Encode(action.ShowRecords, ""))
}

// QuickReplyAccount opens the account summary.
func QuickReplyAccount() QuickReplyItem {
	return NewPostbackItem("👤 帳戶資訊", action.Encode(action.ShowAccount, ""))
}

// QuickReplyConnect explains how to link the app.
func QuickReplyConnect() QuickReplyItem {
	return NewPostbackItem("🔗 連接 App", action.Encode(action.ConnectApp, ""))
}

// QuickReplyHelp opens the usage guide.
func QuickReplyHelp() QuickReplyItem {
	return NewPostbackItem("❓ 使用說明", action.Encode(action.ShowHelp, ""))
}

// QuickReplyMainMenu returns to the main menu.
func QuickReplyMainMenu() QuickReplyItem {
	return NewPostbackItem("🏠 主選單", action.Encode(action.ShowMainMenu, ""))
}

// ReminderActions returns the taken/delay/skip items for one reminder, or
// nil when the reminder ID is too long for the postback data limit. LINE
// rejects a whole message if any item exceeds it.
func ReminderActions(reminderID, takenLabel, delayLabel, skipLabel string) []QuickReplyItem {
	taken := action.Encode(action.Taken, reminderID)
	delay := action.Encode(action.Delay, reminderID)
	skip := action.Encode(action.Skip, reminderID)
	if max(len(taken), len(delay), len(skip)) > MaxPostbackData {
		return nil
	}
	return []QuickReplyItem{
		NewPostbackItem(takenLabel, taken),
		NewPostbackItem(delayLabel, delay),
		NewPostbackItem(skipLabel, skip),
	}
}
