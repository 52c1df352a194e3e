package webhook

import (
	"time"

	"github.com/garyellow/medreminder-linebot-go/internal/config"
	"github.com/garyellow/medreminder-linebot-go/internal/metrics"
)

// HandlerOption is a functional option for configuring Handler.
type HandlerOption func(*Handler)

// WithBotConfig applies the webhook limits from cfg.
func WithBotConfig(cfg config.BotConfig) HandlerOption {
	return func(h *Handler) {
		h.webhookTimeout = cfg.WebhookTimeout
		h.maxEventsPerWebhook = cfg.MaxEventsPerWebhook
		h.minReplyTokenLength = cfg.MinReplyTokenLength
	}
}

// WithWebhookTimeout sets the per-event processing timeout.
func WithWebhookTimeout(timeout time.Duration) HandlerOption {
	return func(h *Handler) {
		h.webhookTimeout = timeout
	}
}

// WithMaxEvents caps how many events of one request are processed.
func WithMaxEvents(n int) HandlerOption {
	return func(h *Handler) {
		h.maxEventsPerWebhook = n
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}
