// Package notify delivers verification codes to end users.
package notify

import "github.com/voxlink/server/internal/config"

// Notifier delivers a message to an email address.
type Notifier interface {
	Send(to, subject, body string) error
}

// NewFromConfig selects the delivery driver. The log driver is the
// development default so codes stay readable without a mail server.
func NewFromConfig(cfg *config.Config) Notifier {
	if cfg.NotifyDriver == "log" {
		return NewLogNotifier()
	}
	return NewMailer(cfg)
}
