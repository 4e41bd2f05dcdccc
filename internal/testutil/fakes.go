package testutil

import (
	"context"
	"sync"

	"beroepsbelg/pkg/model"
)

// SentWebhook is one call recorded by Notifier.
type SentWebhook struct {
	URL     string
	Payload any
	Headers map[string]string
}

// Notifier records webhook sends. Fail, when set, decides the result of each send.
type Notifier struct {
	mu   sync.Mutex
	Sent []SentWebhook
	Fail func(url string, payload any) error
}

func (n *Notifier) Send(_ context.Context, url string, payload any, headers map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.Sent = append(n.Sent, SentWebhook{URL: url, Payload: payload, Headers: headers})
	if n.Fail != nil {
		return n.Fail(url, payload)
	}
	return nil
}

func (n *Notifier) Calls() []SentWebhook {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]SentWebhook(nil), n.Sent...)
}

// Publisher records published events. Err is returned from every Publish.
type Publisher struct {
	mu     sync.Mutex
	Events []model.Event
	Err    error
}

func (p *Publisher) Publish(_ context.Context, evt model.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Events = append(p.Events, evt)
	return p.Err
}

func (p *Publisher) Close() error { return nil }

// Types returns the types of the recorded events in publish order.
func (p *Publisher) Types() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]model.EventType, 0, len(p.Events))
	for _, evt := range p.Events {
		out = append(out, evt.Type)
	}
	return out
}
