// Package action encodes and decodes the postback payloads carried by
// quick-reply buttons.
//
// Token format: "action=<verb>" or, for verbs acting on a reminder,
// "action=<verb>_<reminderID>". Reminder IDs are opaque.
package action

import "strings"

// Verb names a user-facing action.
type Verb string

// Verbs. The string values are persisted in quick replies users may tap
// long after they were sent, so they must never change.
const (
	ShowTodayReminders Verb = "show_today_reminders"
	RecordMedicine     Verb = "record_medicine"
	ShowRecords        Verb = "show_records"
	ShowAccount        Verb = "show_account"
	ConnectApp         Verb = "connect_app"
	ShowHelp           Verb = "show_help"
	ShowMainMenu       Verb = "show_main_menu"

	Taken Verb = "taken"
	Delay Verb = "delay"
	Skip  Verb = "skip"

	// Greeting is only produced by text classification; it has no token.
	Greeting Verb = "greeting"
)

// Prefix starts every token.
const Prefix = "action="

const targetSep = "_"

// Token is a decoded postback payload.
type Token struct {
	Verb   Verb
	Target string
}

var simpleVerbs = map[Verb]struct{}{
	ShowTodayReminders: {},
	RecordMedicine:     {},
	ShowRecords:        {},
	ShowAccount:        {},
	ConnectApp:         {},
	ShowHelp:           {},
	ShowMainMenu:       {},
}

// targetVerbs are checked in this order when decoding.
var targetVerbs = []Verb{Taken, Delay, Skip}

// RequiresTarget reports whether v acts on a reminder.
func (v Verb) RequiresTarget() bool {
	switch v {
	case Taken, Delay, Skip:
		return true
	}
	return false
}

func (v Verb) String() string {
	return string(v)
}

// Encode builds the token for v. target is ignored for verbs that do not
// act on a reminder.
func Encode(v Verb, target string) string {
	if v.RequiresTarget() {
		return Prefix + string(v) + targetSep + target
	}
	return Prefix + string(v)
}

// Decode parses a token. ok is false for anything that is not a token
// Encode could have produced; callers show the main menu in that case.
func Decode(data string) (Token, bool) {
	rest, found := strings.CutPrefix(data, Prefix)
	if !found {
		return Token{}, false
	}

	if _, simple := simpleVerbs[Verb(rest)]; simple {
		return Token{Verb: Verb(rest)}, true
	}

	for _, v := range targetVerbs {
		if target, ok := strings.CutPrefix(rest, string(v)+targetSep); ok {
			return Token{Verb: v, Target: target}, true
		}
	}

	return Token{}, false
}
