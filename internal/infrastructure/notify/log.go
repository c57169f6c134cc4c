package notify

import "log/slog"

type logNotifier struct{}

// NewLogNotifier returns a Notifier that writes messages to the process log
// instead of delivering them. Development only.
func NewLogNotifier() Notifier {
	return logNotifier{}
}

func (logNotifier) Send(to, subject, body string) error {
	slog.Info("notification (log driver)", "to", to, "subject", subject, "body", body)
	return nil
}
