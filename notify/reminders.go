package notify

import (
	"context"
	"errors"
	"time"

	"dietcoach/repository"

	"go.uber.org/zap"
)

// Reminders periodically notifies clients of appointments starting within
// Lead. Each appointment is reminded at most once.
type Reminders struct {
	Appointments repository.AppointmentRepository
	Clients      repository.ClientRepository
	Notifier     Notifier

	Interval time.Duration
	Lead     time.Duration
	Location *time.Location
	Now      func() time.Time
}

// Run checks once immediately and then every Interval until ctx is done.
func (r *Reminders) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		if n, err := r.Tick(ctx); err != nil {
			zap.L().Error("reminder pass failed", zap.Error(err))
		} else if n > 0 {
			zap.L().Info("appointment reminders sent", zap.Int("count", n))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Tick sends reminders that are due and returns how many were sent. Clients
// without Telegram stay pending so a later link still gets the reminder.
func (r *Reminders) Tick(ctx context.Context) (int, error) {
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}

	due, err := r.Appointments.DueForReminder(ctx, now, now.Add(r.Lead))
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range due {
		a := &due[i]
		client, err := r.Clients.GetClient(ctx, a.UserID, a.ClientID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return sent, err
		}
		if !client.TelegramLinked() {
			continue
		}
		if err := r.Notifier.NotifyClient(ctx, client, AppointmentReminder(a, loc)); err != nil {
			zap.L().Warn("reminder not delivered", zap.String("appointment_id", a.ID.Hex()), zap.Error(err))
			continue
		}
		if err := r.Appointments.MarkReminderSent(ctx, a.ID); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}
