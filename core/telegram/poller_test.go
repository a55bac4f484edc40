package telegram

import (
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

func TestBuildPollerWebhook(t *testing.T) {
	p := BuildPoller(PollerOptions{
		RunMode: "Webhook",
		Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://bot.example.com/hook"},
	})

	wh, ok := p.(*tele.Webhook)
	if !ok {
		t.Fatalf("expected *tele.Webhook, got %T", p)
	}
	if wh.Listen != "0.0.0.0:8443" {
		t.Errorf("listen = %q", wh.Listen)
	}
	if wh.Endpoint.PublicURL != "https://bot.example.com/hook" {
		t.Errorf("public url = %q", wh.Endpoint.PublicURL)
	}
}

func TestBuildPollerLongPollDefaults(t *testing.T) {
	tests := []struct {
		name    string
		opts    PollerOptions
		timeout time.Duration
	}{
		{name: "empty mode", opts: PollerOptions{}, timeout: defaultLongPollTimeout},
		{name: "explicit timeout", opts: PollerOptions{RunMode: "longpoll", LongPollTimeoutSeconds: 25}, timeout: 25 * time.Second},
		{name: "unknown mode falls back", opts: PollerOptions{RunMode: "carrier-pigeon"}, timeout: defaultLongPollTimeout},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := BuildPoller(tc.opts)
			lp, ok := p.(*tele.LongPoller)
			if !ok {
				t.Fatalf("expected *tele.LongPoller, got %T", p)
			}
			if lp.Timeout != tc.timeout {
				t.Errorf("timeout = %v, want %v", lp.Timeout, tc.timeout)
			}
		})
	}
}
