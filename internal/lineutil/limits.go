package lineutil

// LINE API limits, counted in runes except MaxPostbackData, which is bytes.
// References: https://developers.line.biz/en/reference/messaging-api/
const (
	MaxTextMessageLength = 5000
	MaxPostbackData      = 300
	MaxSenderNameLength  = 20

	// Quick Reply Limits
	MaxQuickReplyItemCount = 13
	MaxQuickReplyLabel     = 20
)
