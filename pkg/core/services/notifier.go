package services

import (
	"context"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

// Notifier delivers notifications. Implementations must not block the caller
// for long and their failures never affect the outcome of a core operation.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, model.Notification) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
