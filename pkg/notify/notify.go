// Package notify delivers core notifications to logs, email and message
// brokers. Every notifier swallows delivery failures after logging them.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

// Notifier matches services.Notifier
type Notifier interface {
	Notify(ctx context.Context, n model.Notification)
}

// Multi fans a notification out to every notifier in order
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n model.Notification) {
	for _, notifier := range m {
		notifier.Notify(ctx, n)
	}
}

// Log writes notifications to the logger
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(_ context.Context, n model.Notification) {
	l.logger.Info("Notification",
		zap.String("kind", n.Kind),
		zap.String("volunteer_id", n.VolunteerID),
		zap.String("event_id", n.EventID),
		zap.String("subject", n.Subject),
		zap.Time("occurred_at", n.OccurredAt))
}

// message is the wire form published to brokers
type message struct {
	Kind        string    `json:"kind"`
	VolunteerID string    `json:"volunteer_id,omitempty"`
	EventID     string    `json:"event_id,omitempty"`
	Subject     string    `json:"subject"`
	Message     string    `json:"message"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func encode(n model.Notification) ([]byte, error) {
	return json.Marshal(message{
		Kind:        n.Kind,
		VolunteerID: n.VolunteerID,
		EventID:     n.EventID,
		Subject:     n.Subject,
		Message:     n.Message,
		OccurredAt:  n.OccurredAt.UTC(),
	})
}

// detach keeps request-scoped values but drops cancellation so a background
// delivery outlives the request that triggered it
func detach(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}
