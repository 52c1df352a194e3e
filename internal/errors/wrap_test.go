package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapper_Wrap(t *testing.T) {
	t.Parallel()

	w := NewWrapper("delivery", "push_reminder")
	assert.NoError(t, w.Wrap(nil, "ignored"))

	cause := errors.New("status 429")
	err := w.Wrap(cause, "發送提醒失敗")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "[delivery:push_reminder] 發送提醒失敗: status 429", err.Error())
}

func TestGetUserMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("raw"), "raw"},
		{"wrapped", NewWrapper("m", "op").Wrap(errors.New("x"), "友善訊息"), "友善訊息"},
		{"wrapped twice", fmt.Errorf("outer: %w", NewWrapper("m", "op").Wrap(errors.New("x"), "內層")), "內層"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, GetUserMessage(tt.err))
		})
	}
}
