// Package alert reports builds whose terminal state could not be persisted.
package alert

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"template-builder/internal/common/logger"
)

// Alert describes a build record left in building state.
type Alert struct {
	ID         string    `json:"id"`
	BuildID    string    `json:"buildId"`
	TemplateID string    `json:"templateId"`
	Status     string    `json:"intendedStatus"`
	ErrorKind  string    `json:"errorKind,omitempty"`
	Message    string    `json:"message"`
	Attempts   int       `json:"attempts"`
	OccurredAt time.Time `json:"occurredAt"`
}

func (a Alert) Subject() string {
	return fmt.Sprintf("[template-builder] build %s stuck in building state", a.BuildID)
}

func (a Alert) Body() string {
	return fmt.Sprintf(
		"Build %s of template %s could not be marked %s after %d attempts.\nError kind: %s\nLast error: %s\nAt: %s\n",
		a.BuildID, a.TemplateID, a.Status, a.Attempts, a.ErrorKind, a.Message, a.OccurredAt.UTC().Format(time.RFC3339),
	)
}

type Alerter interface {
	Send(ctx context.Context, a Alert) error
}

// LogAlerter writes alerts to the log only.
type LogAlerter struct {
	log logger.Logger
}

func NewLogAlerter(log logger.Logger) *LogAlerter {
	return &LogAlerter{log: logger.ForComponent(log, "alert")}
}

func (l *LogAlerter) Send(_ context.Context, a Alert) error {
	l.log.Error(a.Subject(), map[string]interface{}{
		"alertId":        a.ID,
		"buildId":        a.BuildID,
		"templateId":     a.TemplateID,
		"intendedStatus": a.Status,
		"errorKind":      a.ErrorKind,
		"attempts":       a.Attempts,
		"error":          a.Message,
	})
	return nil
}

// Multi fans an alert out to every alerter and joins their errors.
type Multi []Alerter

func (m Multi) Send(ctx context.Context, a Alert) error {
	var errs []error
	for _, al := range m {
		if err := al.Send(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
