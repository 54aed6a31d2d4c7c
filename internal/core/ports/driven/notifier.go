package driven

import "context"

// Severity classifies a notification.
type Severity string

// Notification severities.
const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notifier delivers sync outcome messages to an operator channel.
// Delivery is best-effort: the orchestrator logs and swallows errors,
// a notification failure never fails a sync.
type Notifier interface {
	// Notify sends a message with the given severity.
	Notify(ctx context.Context, message string, severity Severity) error
}
