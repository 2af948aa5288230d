package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/marisol-apps/pantrylog-backend/pkg/config"
	"github.com/marisol-apps/pantrylog-backend/pkg/logger"
)

// Scheduler is the local-reminder contract. The core calls Schedule when an
// expiry date is set or changed, and Cancel on delete and on consumption.
// Delivery mechanics live outside the core.
type Scheduler interface {
	Schedule(ctx context.Context, itemID uuid.UUID, expiry time.Time) error
	Cancel(ctx context.Context, itemID uuid.UUID) error
}

// ReminderTime derives when the reminder should fire: the configured lead
// before expiry, clamped so a near-term expiry still produces a future
// reminder rather than one in the past.
func ReminderTime(expiry time.Time, lead time.Duration, now time.Time) time.Time {
	at := expiry.Add(-lead)
	if at.Before(now) {
		return now
	}
	return at
}

// LogScheduler is the on-device implementation used when no platform
// notification bridge is wired. It records the schedule decision and nothing
// else, which keeps the calling contract exercised in every build.
type LogScheduler struct {
	cfg  config.NotifyConfig
	logg *logger.Logger
}

// NewLogScheduler builds a scheduler that only logs.
func NewLogScheduler(cfg config.NotifyConfig, logg *logger.Logger) *LogScheduler {
	return &LogScheduler{cfg: cfg, logg: logg}
}

func (s *LogScheduler) Schedule(ctx context.Context, itemID uuid.UUID, expiry time.Time) error {
	if s.logg != nil {
		at := ReminderTime(expiry, s.cfg.ReminderLead, time.Now())
		ctx = s.logg.WithFields(ctx, map[string]any{
			"item_id":     itemID.String(),
			"expiry":      expiry.Format(time.RFC3339),
			"reminder_at": at.Format(time.RFC3339),
		})
		s.logg.Info(ctx, "expiry reminder scheduled")
	}
	return nil
}

func (s *LogScheduler) Cancel(ctx context.Context, itemID uuid.UUID) error {
	if s.logg != nil {
		ctx = s.logg.WithItemID(ctx, itemID.String())
		s.logg.Info(ctx, "expiry reminder canceled")
	}
	return nil
}
