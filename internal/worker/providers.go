package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	ChannelEmail    = "email"
	ChannelSMS      = "sms"
	ChannelWhatsApp = "whatsapp"
)

var ErrProviderFailure = errors.New("provider failure")

type Provider interface {
	Send(ctx context.Context, message, recipient string) error
}

// ProviderOptions carries what a webhook provider needs; the other kinds
// ignore it.
type ProviderOptions struct {
	WebhookURL string
	Token      string
	Logger     *zap.Logger
}

// NewProvider picks a provider by kind: log, noop, fail, webhook, or a bare
// http(s) URL which is treated as a webhook. Unknown kinds and a webhook
// without a URL fall back to logging.
func NewProvider(kind, channel string, opts ProviderOptions) Provider {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	switch kind {
	case "", "stub", "log":
		return logProvider{channel: channel, logger: logger}
	case "noop":
		return noopProvider{}
	case "fail":
		return failProvider{}
	case "webhook":
		if opts.WebhookURL == "" {
			logger.Warn("webhook provider without url, logging instead", zap.String("channel", channel))
			return logProvider{channel: channel, logger: logger}
		}
		return newWebhookProvider(channel, opts.WebhookURL, opts.Token)
	default:
		if strings.HasPrefix(kind, "http://") || strings.HasPrefix(kind, "https://") {
			return newWebhookProvider(channel, kind, opts.Token)
		}
		logger.Warn("unknown provider, logging instead", zap.String("channel", channel), zap.String("provider", kind))
		return logProvider{channel: channel, logger: logger}
	}
}

type logProvider struct {
	channel string
	logger  *zap.Logger
}

func (p logProvider) Send(ctx context.Context, message, recipient string) error {
	p.logger.Info("send notification",
		zap.String("channel", p.channel),
		zap.String("recipient", recipient),
		zap.String("message", message),
	)
	return nil
}

type noopProvider struct{}

func (noopProvider) Send(ctx context.Context, message, recipient string) error {
	return nil
}

type failProvider struct{}

func (failProvider) Send(ctx context.Context, message, recipient string) error {
	return ErrProviderFailure
}

type webhookProvider struct {
	channel string
	url     string
	token   string
	client  *http.Client
}

func newWebhookProvider(channel, url, token string) webhookProvider {
	return webhookProvider{
		channel: channel,
		url:     url,
		token:   token,
		client: &http.Client{
			Timeout:   5 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (p webhookProvider) Send(ctx context.Context, message, recipient string) error {
	payload := map[string]string{
		"channel":   p.channel,
		"recipient": recipient,
		"message":   message,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: webhook returned %d", ErrProviderFailure, resp.StatusCode)
	}
	return nil
}
