package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

// EmailSender sends one plain text email
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// VolunteerFinder looks up the volunteer a notification is about
type VolunteerFinder interface {
	FindVolunteer(ctx context.Context, id string) (*model.Volunteer, error)
}

// Email mails notifications to the volunteer concerned, or to fallbackTo for
// notifications without a volunteer. Sending happens on a background
// goroutine since the Gmail client throttles; call Wait before exiting.
type Email struct {
	sender     EmailSender
	volunteers VolunteerFinder
	fallbackTo string
	logger     *zap.Logger
	timeout    time.Duration
	wg         sync.WaitGroup
}

func NewEmail(sender EmailSender, volunteers VolunteerFinder, fallbackTo string, logger *zap.Logger) *Email {
	return &Email{
		sender:     sender,
		volunteers: volunteers,
		fallbackTo: fallbackTo,
		logger:     logger,
		timeout:    time.Minute,
	}
}

func (e *Email) Notify(ctx context.Context, n model.Notification) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		ctx, cancel := detach(ctx, e.timeout)
		defer cancel()

		to := e.recipient(ctx, n)
		if to == "" {
			e.logger.Debug("No recipient for notification", zap.String("kind", n.Kind))
			return
		}

		if err := e.sender.SendEmail(ctx, to, n.Subject, n.Message); err != nil {
			e.logger.Warn("Failed to email notification",
				zap.String("kind", n.Kind),
				zap.String("to", to),
				zap.Error(err))
		}
	}()
}

func (e *Email) recipient(ctx context.Context, n model.Notification) string {
	if n.VolunteerID == "" {
		return e.fallbackTo
	}
	v, err := e.volunteers.FindVolunteer(ctx, n.VolunteerID)
	if err != nil {
		e.logger.Warn("Failed to look up notification recipient",
			zap.String("volunteer_id", n.VolunteerID),
			zap.Error(err))
		return e.fallbackTo
	}
	return v.Email
}

// Wait blocks until queued emails have been attempted
func (e *Email) Wait() {
	e.wg.Wait()
}
