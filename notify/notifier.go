package notify

import (
	"context"
	"errors"

	"apartment-tracker/utils"
)

// ErrNotConfigured marks a channel whose credentials are missing.
var ErrNotConfigured = errors.New("notification channel not configured")

// Notifier delivers a human-readable alert over some channel.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// Named is implemented by notifiers that want a readable name in logs.
type Named interface {
	Name() string
}

func nameOf(n Notifier) string {
	if named, ok := n.(Named); ok {
		return named.Name()
	}
	return "notifier"
}

// LogNotifier writes alerts to the operator log. It never fails.
type LogNotifier struct {
	logger *utils.Logger
}

func NewLogNotifier(logger *utils.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) Notify(_ context.Context, title, message string) error {
	n.logger.Info("[notify] %s - %s", title, message)
	return nil
}
