package notify

import (
	"context"

	"go.uber.org/multierr"
)

// Notifier delivers a short titled message to a user-facing channel.
type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

// Multi sends to every channel and returns all failures combined; one
// failing channel never stops the others.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, title, text string) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Send(ctx, title, text))
	}
	return err
}

// Nop is a notifier that does nothing, handy when a channel is disabled.
type Nop struct{}

func (Nop) Send(context.Context, string, string) error { return nil }
