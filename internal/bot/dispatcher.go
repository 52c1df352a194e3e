package bot

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/garyellow/medreminder-linebot-go/internal/action"
	"github.com/garyellow/medreminder-linebot-go/internal/config"
	"github.com/garyellow/medreminder-linebot-go/internal/ctxutil"
	"github.com/garyellow/medreminder-linebot-go/internal/logger"
	"github.com/garyellow/medreminder-linebot-go/internal/metrics"
	"github.com/garyellow/medreminder-linebot-go/internal/sentry"
	"github.com/garyellow/medreminder-linebot-go/internal/storage"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

// BindingEnsurer registers or refreshes the sender's binding.
type BindingEnsurer interface {
	EnsureBinding(ctx context.Context, lineUserID string) (storage.Binding, bool)
}

// DispatcherConfig holds the dependencies of a Dispatcher.
type DispatcherConfig struct {
	Registry  *Registry
	Bindings  BindingEnsurer
	Logger    *logger.Logger
	Metrics   *metrics.Metrics
	BotConfig config.BotConfig
}

// Dispatcher turns one webhook event into reply messages. It holds no
// per-event state and is safe for concurrent use.
type Dispatcher struct {
	registry *Registry
	bindings BindingEnsurer
	logger   *logger.Logger
	metrics  *metrics.Metrics
	cfg      config.BotConfig
	call     HandlerFunc
}

// NewDispatcher creates a dispatcher with the standard middleware chain.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	log := cfg.Logger.WithModule("dispatcher")
	return &Dispatcher{
		registry: cfg.Registry,
		bindings: cfg.Bindings,
		logger:   log,
		metrics:  cfg.Metrics,
		cfg:      cfg.BotConfig,
		call: Chain(CallHandler,
			LoggingMiddleware(cfg.Logger),
			MetricsMiddleware(cfg.Metrics),
			RecoveryMiddleware(),
		),
	}
}

// Dispatch classifies event, refreshes the sender's binding and returns
// the reply. A nil result means nothing should be sent.
//
// Dispatch never panics and never returns an error: handler failures are
// logged, reported and turned into either a fixed reply or no reply.
func (d *Dispatcher) Dispatch(ctx context.Context, event webhook.EventInterface) []messaging_api.MessageInterface {
	source := EventSource(event)
	userID := GetUserID(source)
	ctx = ctxutil.WithUserID(ctx, userID)
	ctx = ctxutil.WithChatID(ctx, GetChatID(source))

	if userID != "" {
		d.bindings.EnsureBinding(ctx, userID)
	}

	req, ok := d.classify(ctx, event, userID)
	if !ok {
		return nil
	}
	return d.route(ctx, req)
}

func (d *Dispatcher) classify(ctx context.Context, event webhook.EventInterface, userID string) (Request, bool) {
	switch e := event.(type) {
	case webhook.MessageEvent:
		text, ok := e.Message.(webhook.TextMessageContent)
		if !ok {
			d.logger.WithField("message_type", e.Message.GetType()).DebugContext(ctx, "Non-text message ignored")
			return Request{}, false
		}
		if n := utf8.RuneCountInString(text.Text); n > d.cfg.MaxMessageLength {
			d.logger.WithField("length", n).WarnContext(ctx, "Text message too long, showing main menu")
			return mainMenuRequest(userID, OriginText), true
		}
		return Request{
			UserID: userID,
			Token:  action.Token{Verb: ClassifyText(text.Text)},
			Origin: OriginText,
		}, true

	case webhook.PostbackEvent:
		var data string
		if e.Postback != nil {
			data = e.Postback.Data
		}
		if data == "" {
			d.logger.WarnContext(ctx, "Empty postback data, showing main menu")
			return mainMenuRequest(userID, OriginPostback), true
		}
		if len(data) > d.cfg.MaxPostbackDataSize {
			d.logger.WithField("length", len(data)).WarnContext(ctx, "Postback data too long, showing main menu")
			return mainMenuRequest(userID, OriginPostback), true
		}
		token, ok := action.Decode(data)
		if !ok {
			d.logger.WithField("data", data).DebugContext(ctx, "Unrecognized action, showing main menu")
			return mainMenuRequest(userID, OriginPostback), true
		}
		return Request{UserID: userID, Token: token, Origin: OriginPostback}, true
	}

	d.logger.WithField("event_type", event.GetType()).DebugContext(ctx, "Event ignored")
	return Request{}, false
}

// mainMenuRequest is the answer to input that cannot be classified.
func mainMenuRequest(userID, origin string) Request {
	return Request{UserID: userID, Token: action.Token{Verb: action.ShowMainMenu}, Origin: origin}
}

func (d *Dispatcher) route(ctx context.Context, req Request) []messaging_api.MessageInterface {
	h, ok := d.registry.Lookup(req.Token.Verb)
	if !ok {
		h, ok = d.registry.Lookup(action.ShowMainMenu)
		if !ok {
			d.logger.WithField("verb", req.Token.Verb.String()).ErrorContext(ctx, "No handler registered")
			return nil
		}
		req.Token = action.Token{Verb: action.ShowMainMenu}
	}

	msgs, err := d.call(ctx, h, req)
	if err == nil {
		return msgs
	}

	if reply := ErrorReply(err); reply != nil {
		d.logger.WithModule(h.Name()).WithError(err).InfoContext(ctx, "Handler degraded to fixed reply")
		return reply
	}

	d.fail(ctx, h, req, err)
	return nil
}

// fail records a dropped event. The event is not retried.
func (d *Dispatcher) fail(ctx context.Context, h Handler, req Request, err error) {
	kind := "error"
	log := d.logger.WithModule(h.Name()).WithError(err).WithField("verb", req.Token.Verb.String())

	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		kind = "panic"
		log = log.WithField("stack", string(panicErr.Stack))
	}

	log.ErrorContext(ctx, "Handler failed, event dropped")
	if d.metrics != nil {
		d.metrics.RecordHandlerFailure(req.Token.Verb.String(), kind)
	}
	tags := map[string]string{
		"module": h.Name(),
		"verb":   req.Token.Verb.String(),
	}
	if panicErr != nil {
		sentry.CapturePanic(ctx, panicErr.Value, tags)
		return
	}
	sentry.CaptureError(ctx, err, tags)
}
