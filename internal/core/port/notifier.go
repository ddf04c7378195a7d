package port

import "context"

// Notifier delivers a message to an address. The transport (SMTP, logging in
// development) is an external concern behind this interface.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}
