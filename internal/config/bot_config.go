package config

import (
	"errors"
	"fmt"
	"time"
)

// LINE platform limits.
const (
	LINEMaxEventsPerWebhook    = 100
	LINEMaxTextMessageLength   = 5000
	LINEMaxPostbackDataLength  = 300
	LINEMinReplyTokenLength    = 10
	LINEMessagingAPIDefaultRPS = 100.0
)

// BotConfig holds dispatch and reply limits.
type BotConfig struct {
	WebhookTimeout time.Duration

	MaxEventsPerWebhook int
	MinReplyTokenLength int
	MaxMessageLength    int
	MaxPostbackDataSize int

	// GlobalRateRPS caps outbound reply/push calls per second.
	GlobalRateRPS float64

	// MaxRecordsShown is how many medicine records the history reply lists.
	MaxRecordsShown int
}

// DefaultBotConfig returns the production defaults.
func DefaultBotConfig() BotConfig {
	return BotConfig{
		WebhookTimeout:      WebhookProcessing,
		MaxEventsPerWebhook: LINEMaxEventsPerWebhook,
		MinReplyTokenLength: LINEMinReplyTokenLength,
		MaxMessageLength:    LINEMaxTextMessageLength,
		MaxPostbackDataSize: LINEMaxPostbackDataLength,
		GlobalRateRPS:       80.0, // headroom under the 100 RPS API limit
		MaxRecordsShown:     5,
	}
}

// Validate reports every invalid field at once.
func (c BotConfig) Validate() error {
	var errs []error
	if c.WebhookTimeout <= 0 {
		errs = append(errs, fmt.Errorf("webhook timeout must be positive, got %v", c.WebhookTimeout))
	}
	if c.MaxEventsPerWebhook < 1 {
		errs = append(errs, fmt.Errorf("max events per webhook must be positive, got %d", c.MaxEventsPerWebhook))
	}
	if c.MaxPostbackDataSize < 1 || c.MaxPostbackDataSize > LINEMaxPostbackDataLength {
		errs = append(errs, fmt.Errorf("max postback data size must be 1-%d, got %d", LINEMaxPostbackDataLength, c.MaxPostbackDataSize))
	}
	if c.MaxMessageLength < 1 {
		errs = append(errs, fmt.Errorf("max message length must be positive, got %d", c.MaxMessageLength))
	}
	if c.GlobalRateRPS <= 0 {
		errs = append(errs, fmt.Errorf("global rate RPS must be positive, got %f", c.GlobalRateRPS))
	}
	if c.MaxRecordsShown < 1 {
		errs = append(errs, fmt.Errorf("max records shown must be positive, got %d", c.MaxRecordsShown))
	}
	return errors.Join(errs...)
}
