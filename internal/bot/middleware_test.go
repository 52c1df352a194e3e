package bot

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/garyellow/medreminder-linebot-go/internal/action"
	"github.com/garyellow/medreminder-linebot-go/internal/logger"
	"github.com/garyellow/medreminder-linebot-go/internal/metrics"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain_Order(t *testing.T) {
	t.Parallel()
	var order []string
	mark := func(name string) Middleware {
		return func(next HandlerFunc) HandlerFunc {
			return func(ctx context.Context, h Handler, req Request) ([]messaging_api.MessageInterface, error) {
				order = append(order, name)
				return next(ctx, h, req)
			}
		}
	}

	call := Chain(CallHandler, mark("outer"), mark("inner"))
	_, err := call(context.Background(), &stubHandler{name: "x", reply: "ok"}, Request{})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Parallel()
	call := Chain(CallHandler, RecoveryMiddleware())

	msgs, err := call(context.Background(), &stubHandler{name: "boom", panicWith: "kaboom"}, Request{})
	assert.Nil(t, msgs)

	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "kaboom", panicErr.Value)
	assert.NotEmpty(t, panicErr.Stack)
}

func TestLoggingMiddleware_PassesThrough(t *testing.T) {
	t.Parallel()
	log := logger.NewWithWriter("debug", io.Discard)
	wantErr := errors.New("handler error")
	call := Chain(CallHandler, LoggingMiddleware(log))

	_, err := call(context.Background(), &stubHandler{name: "x", err: wantErr}, Request{})
	assert.ErrorIs(t, err, wantErr)
}

func TestMetricsMiddleware(t *testing.T) {
	t.Parallel()
	m := metrics.New(prometheus.NewRegistry())
	call := Chain(CallHandler, MetricsMiddleware(m))

	req := Request{Token: action.Token{Verb: action.ShowHelp}, Origin: OriginText}
	_, err := call(context.Background(), &stubHandler{name: "x", reply: "ok"}, req)
	require.NoError(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(m.IntentsTotal.WithLabelValues("show_help", OriginText)), 0)
}
