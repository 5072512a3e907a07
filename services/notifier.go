package services

import (
	"context"

	"github.com/mindspend/mindspend-api/models"
	"github.com/mindspend/mindspend-api/utils"
)

// Notifier delivers an alert event over one channel.
type Notifier interface {
	Notify(ctx context.Context, event models.AlertEvent) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, event models.AlertEvent) error

func (f NotifierFunc) Notify(ctx context.Context, event models.AlertEvent) error {
	return f(ctx, event)
}

type namedNotifier struct {
	name string
	n    Notifier
}

// MultiNotifier fans an event out to every registered channel. A failing
// channel is logged and never stops the others.
type MultiNotifier struct {
	notifiers []namedNotifier
}

func NewMultiNotifier() *MultiNotifier {
	return &MultiNotifier{}
}

// Add registers a channel. Nil notifiers are ignored.
func (m *MultiNotifier) Add(name string, n Notifier) *MultiNotifier {
	if n != nil {
		m.notifiers = append(m.notifiers, namedNotifier{name: name, n: n})
	}
	return m
}

func (m *MultiNotifier) Len() int {
	return len(m.notifiers)
}

// Notify always returns nil; per-channel failures only reach the log.
func (m *MultiNotifier) Notify(ctx context.Context, event models.AlertEvent) error {
	for _, nn := range m.notifiers {
		if err := nn.n.Notify(ctx, event); err != nil {
			utils.SafeWarn("[Notifier] %s failed for %s alert: %v", nn.name, event.Kind, err)
		}
	}
	return nil
}
