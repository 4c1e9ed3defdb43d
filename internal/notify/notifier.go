// Package notify forwards alerts to out-of-band channels.
package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
)

// Notifier delivers an alert outside the application.
type Notifier interface {
	Notify(ctx context.Context, alert domain.Alert) error
}

// LogNotifier writes alerts to the structured log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier builds a notifier backed by zap.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, alert domain.Alert) error {
	n.logger.Info("alert dispatched",
		zap.String("recipient_id", alert.RecipientID),
		zap.String("type", string(alert.Type)),
		zap.String("severity", string(alert.Severity)),
		zap.String("title", alert.Title),
	)
	return nil
}

// Fanout delivers alerts at or above a minimum severity to every notifier.
type Fanout struct {
	min       domain.AlertSeverity
	notifiers []Notifier
}

// NewFanout filters by min and fans out to notifiers. Nil entries are skipped.
func NewFanout(min domain.AlertSeverity, notifiers ...Notifier) *Fanout {
	if !min.Valid() {
		min = domain.SeverityWarning
	}
	f := &Fanout{min: min}
	for _, n := range notifiers {
		if n != nil {
			f.notifiers = append(f.notifiers, n)
		}
	}
	return f
}

// Notify returns the joined errors of all notifiers that failed.
func (f *Fanout) Notify(ctx context.Context, alert domain.Alert) error {
	if alert.Severity.Rank() < f.min.Rank() {
		return nil
	}
	var errs []error
	for _, n := range f.notifiers {
		if err := n.Notify(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
