package sentry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInitialize_EmptyDSNDisables(t *testing.T) {
	assert.NoError(t, Initialize(Config{}))
	assert.False(t, IsEnabled())
}

func TestInitialize_InvalidDSN(t *testing.T) {
	err := Initialize(Config{DSN: "not a dsn"})
	assert.Error(t, err)
}

func TestCapture_NoopWhenDisabled(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		CaptureError(ctx, errors.New("boom"), map[string]string{"verb": "taken"})
		CaptureError(ctx, nil, nil)
		CapturePanic(ctx, "panic value", nil)
		CapturePanic(ctx, nil, nil)
	})
	assert.NotPanics(t, func() { Flush(10 * time.Millisecond) })
}
