package lineutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatClock(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "08:05", FormatClock(8, 5))
	assert.Equal(t, "00:00", FormatClock(0, 0))
	assert.Equal(t, "23:59", FormatClock(23, 59))
}

func TestFormatDisplayDate(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "2026/1/5", FormatDisplayDate("2026-01-05"))
	assert.Equal(t, "2026/10/19", FormatDisplayDate("2026-10-19"))
	assert.Equal(t, "yesterday", FormatDisplayDate("yesterday"))
}

func TestGetTaipeiLocation(t *testing.T) {
	t.Parallel()
	_, offset := time.Date(2026, 7, 1, 12, 0, 0, 0, GetTaipeiLocation()).Zone()
	assert.Equal(t, 8*60*60, offset)
}
