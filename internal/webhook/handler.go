// Package webhook receives LINE webhook requests, acknowledges them and
// dispatches their events in the background.
package webhook

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/garyellow/medreminder-linebot-go/internal/config"
	"github.com/garyellow/medreminder-linebot-go/internal/ctxutil"
	"github.com/garyellow/medreminder-linebot-go/internal/logger"
	"github.com/garyellow/medreminder-linebot-go/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentEvents bounds per-request fan-out.
const maxConcurrentEvents = 8

// Dispatcher turns one event into reply messages. It never fails; an empty
// result means nothing should be sent.
type Dispatcher interface {
	Dispatch(ctx context.Context, event webhook.EventInterface) []messaging_api.MessageInterface
}

// Replier sends messages with a reply token.
type Replier interface {
	Reply(ctx context.Context, replyToken string, msgs []messaging_api.MessageInterface) error
}

// Handler handles LINE webhook events
type Handler struct {
	channelSecret string
	dispatcher    Dispatcher
	replier       Replier
	metrics       *metrics.Metrics
	logger        *logger.Logger
	wg            sync.WaitGroup

	webhookTimeout      time.Duration
	maxEventsPerWebhook int
	minReplyTokenLength int
}

// NewHandler creates a new webhook handler with the default bot limits.
func NewHandler(channelSecret string, dispatcher Dispatcher, replier Replier, log *logger.Logger, opts ...HandlerOption) *Handler {
	defaults := config.DefaultBotConfig()
	h := &Handler{
		channelSecret:       channelSecret,
		dispatcher:          dispatcher,
		replier:             replier,
		logger:              log.WithModule("webhook"),
		webhookTimeout:      defaults.WebhookTimeout,
		maxEventsPerWebhook: defaults.MaxEventsPerWebhook,
		minReplyTokenLength: defaults.MinReplyTokenLength,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle is the Gin handler for the webhook endpoint
func (h *Handler) Handle(c *gin.Context) {
	cb, err := webhook.ParseRequest(h.channelSecret, c.Request)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.logger.WarnContext(c.Request.Context(), "Invalid webhook signature")
			c.Status(http.StatusBadRequest)
		} else {
			h.logger.WithError(err).ErrorContext(c.Request.Context(), "Failed to parse webhook request")
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	// LINE expects the acknowledgement before any processing.
	c.Status(http.StatusOK)

	if len(cb.Events) > h.maxEventsPerWebhook {
		h.logger.WithField("event_count", len(cb.Events)).
			WithField("limit", h.maxEventsPerWebhook).
			Warn("Too many events in webhook batch; truncating")
		cb.Events = cb.Events[:h.maxEventsPerWebhook]
	}

	events := make([]webhook.EventInterface, len(cb.Events))
	copy(events, cb.Events)
	start := time.Now()
	// The request context ends with the response; keep only its tracing values.
	baseCtx := ctxutil.PreserveTracing(c.Request.Context())

	h.wg.Go(func() {
		var g errgroup.Group
		g.SetLimit(maxConcurrentEvents)
		for _, event := range events {
			g.Go(func() error {
				h.processEvent(baseCtx, event, start)
				return nil
			})
		}
		_ = g.Wait()
	})
}

// processEvent dispatches one event and sends its reply. A panic is logged
// and ends only this event.
func (h *Handler) processEvent(ctx context.Context, event webhook.EventInterface, batchStart time.Time) {
	eventStart := time.Now()
	eventType := event.GetType()

	defer func() {
		if r := recover(); r != nil {
			h.logger.WithField("panic", r).
				WithField("event_type", eventType).
				WithField("stack", string(debug.Stack())).
				ErrorContext(ctx, "Panic in async event processing")
			h.recordWebhook(eventType, "panic", time.Since(eventStart).Seconds())
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, h.webhookTimeout)
	defer cancel()

	log := h.logger.WithField("event_type", eventType)
	eventID, eventTimestamp, isRedelivery := extractEventMeta(event)
	if eventID != "" {
		ctx = ctxutil.WithRequestID(ctx, eventID)
		log = log.WithRequestID(eventID)
	}
	if isRedelivery != nil {
		log = log.WithField("is_redelivery", *isRedelivery)
	}
	if eventTimestamp > 0 {
		log = log.WithField("event_timestamp_ms", eventTimestamp)
	}

	messages := h.dispatcher.Dispatch(ctx, event)

	status := "success"
	if len(messages) == 0 {
		status = "no_reply"
	}
	h.recordWebhook(eventType, status, time.Since(eventStart).Seconds())

	if len(messages) > 0 {
		h.reply(ctx, log, event, eventType, messages, eventStart)
	}

	log.WithField("event_duration_ms", time.Since(eventStart).Milliseconds()).
		WithField("batch_duration_ms", time.Since(batchStart).Milliseconds()).
		InfoContext(ctx, "Event processed")
}

func (h *Handler) reply(ctx context.Context, log *logger.Logger, event webhook.EventInterface, eventType string, messages []messaging_api.MessageInterface, eventStart time.Time) {
	replyToken := getReplyToken(event)
	if replyToken == "" {
		log.DebugContext(ctx, "Empty reply token, skipping reply")
		return
	}
	if len(replyToken) < h.minReplyTokenLength {
		log.WithField("token_length", len(replyToken)).DebugContext(ctx, "Invalid reply token format")
		return
	}

	if err := h.replier.Reply(ctx, replyToken, messages); err != nil {
		log.WithError(err).ErrorContext(ctx, "Failed to send reply")
		h.recordWebhook(eventType, "reply_error", time.Since(eventStart).Seconds())
	}
}

func (h *Handler) recordWebhook(eventType, status string, seconds float64) {
	if h.metrics != nil {
		h.metrics.RecordWebhook(eventType, status, seconds)
	}
}

func extractEventMeta(event webhook.EventInterface) (string, int64, *bool) {
	switch e := event.(type) {
	case webhook.MessageEvent:
		return e.WebhookEventId, e.Timestamp, boolPtr(e.DeliveryContext)
	case webhook.PostbackEvent:
		return e.WebhookEventId, e.Timestamp, boolPtr(e.DeliveryContext)
	case webhook.FollowEvent:
		return e.WebhookEventId, e.Timestamp, boolPtr(e.DeliveryContext)
	case webhook.UnfollowEvent:
		return e.WebhookEventId, e.Timestamp, boolPtr(e.DeliveryContext)
	case webhook.JoinEvent:
		return e.WebhookEventId, e.Timestamp, boolPtr(e.DeliveryContext)
	default:
		return "", 0, nil
	}
}

func boolPtr(ctx *webhook.DeliveryContext) *bool {
	if ctx == nil {
		return nil
	}
	val := ctx.IsRedelivery
	return &val
}

// getReplyToken extracts reply token from event
func getReplyToken(event webhook.EventInterface) string {
	switch e := event.(type) {
	case webhook.MessageEvent:
		return e.ReplyToken
	case webhook.PostbackEvent:
		return e.ReplyToken
	case webhook.FollowEvent:
		return e.ReplyToken
	case webhook.JoinEvent:
		return e.ReplyToken
	case webhook.BeaconEvent:
		return e.ReplyToken
	default:
		return ""
	}
}

// Shutdown waits for all async event processing to complete.
// It returns an error if the context is canceled before completion.
func (h *Handler) Shutdown(ctx context.Context) error {
	c := make(chan struct{})
	go func() {
		defer close(c)
		h.wg.Wait()
	}()

	select {
	case <-c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
