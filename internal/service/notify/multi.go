package notify

import (
	"context"
	"errors"
)

// Notifier matches the domain notifier contract.
type Notifier interface {
	Notify(ctx context.Context, message, title string, fields map[string]string) error
}

// Multi fans one notification out to every configured backend and joins
// their errors.
type Multi struct {
	notifiers []Notifier
}

// NewMulti creates a fan-out notifier. Nil entries are skipped.
func NewMulti(notifiers ...Notifier) *Multi {
	out := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return &Multi{notifiers: out}
}

// Notify delivers to all backends; every backend is attempted even when an
// earlier one fails.
func (m *Multi) Notify(ctx context.Context, message, title string, fields map[string]string) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, message, title, fields); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
