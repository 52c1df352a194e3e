package bot

import (
	"slices"
	"strings"

	"github.com/garyellow/medreminder-linebot-go/internal/action"
)

// greetings must match the whole message exactly.
var greetings = []string{"你好", "hi", "hello"}

// keywordRules are tried in order; the first rule with a keyword contained
// in the text wins. Containment is plain substring matching, so a medicine
// name such as "記錄片" also selects the records rule.
var keywordRules = []struct {
	verb     action.Verb
	keywords []string
}{
	{action.ShowTodayReminders, []string{"提醒", "今日"}},
	{action.RecordMedicine, []string{"記錄", "服藥"}},
	{action.ShowAccount, []string{"帳戶", "連接", "綁定"}},
	{action.ShowMainMenu, []string{"選單", "功能", "幫助"}},
}

// ClassifyText maps free text to an action verb. It always returns a verb;
// unmatched text selects the main menu.
func ClassifyText(text string) action.Verb {
	if slices.Contains(greetings, text) {
		return action.Greeting
	}

	for _, rule := range keywordRules {
		if slices.ContainsFunc(rule.keywords, func(k string) bool {
			return strings.Contains(text, k)
		}) {
			return rule.verb
		}
	}

	return action.ShowMainMenu
}
