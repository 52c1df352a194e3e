package lineutil

import (
	"fmt"
	"time"
)

// Date and clock layouts used in stored records and replies.
const (
	RecordDateLayout  = "2006-01-02"
	RecordClockLayout = "15:04"
	DisplayDateLayout = "2006/1/2"
)

var taipeiTZ = loadTaipei()

func loadTaipei() *time.Location {
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		return time.FixedZone("Asia/Taipei", 8*60*60)
	}
	return loc
}

// GetTaipeiLocation returns the Asia/Taipei location, the default zone for
// record timestamps.
func GetTaipeiLocation() *time.Location {
	return taipeiTZ
}

// FormatClock renders hour and minute as zero-padded HH:MM.
func FormatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// FormatDisplayDate turns a stored YYYY-MM-DD date into YYYY/M/D.
// Unparsable input is returned unchanged.
func FormatDisplayDate(date string) string {
	t, err := time.Parse(RecordDateLayout, date)
	if err != nil {
		return date
	}
	return t.Format(DisplayDateLayout)
}
