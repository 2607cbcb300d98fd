package notify

import (
	"context"
	"errors"
	"fmt"

	"apartment-tracker/utils"
)

// Multi fans an alert out to every configured channel concurrently and waits
// for all of them. A failing channel does not prevent delivery on the others.
type Multi struct {
	notifiers []Notifier
	logger    *utils.Logger
}

func NewMulti(logger *utils.Logger, notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers, logger: logger}
}

// Len returns the number of channels.
func (m *Multi) Len() int { return len(m.notifiers) }

func (m *Multi) Notify(ctx context.Context, title, message string) error {
	pool := utils.NewWorkerPool(len(m.notifiers))
	var errs utils.ErrorCollector

	for _, n := range m.notifiers {
		n := n
		pool.Submit(func() {
			if err := n.Notify(ctx, title, message); err != nil {
				if errors.Is(err, ErrNotConfigured) {
					m.logger.Debug("[notify] %s skipped: %v", nameOf(n), err)
					return
				}
				errs.Add(fmt.Errorf("%s: %w", nameOf(n), err))
				return
			}
			m.logger.Debug("[notify] %s delivered %q", nameOf(n), title)
		})
	}
	pool.Wait()

	return errors.Join(errs.Errors()...)
}
