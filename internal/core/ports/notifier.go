package ports

import "context"

// NotificationKind selects the message template owned by the notifier.
type NotificationKind string

const (
	NotificationEmailVerification NotificationKind = "email_verification"
	NotificationPasswordReset     NotificationKind = "password_reset"
)

// Notification is the payload handed to the delivery collaborator: a
// destination, a display name, and the opaque token string. The core never
// formats messages.
type Notification struct {
	Kind  NotificationKind
	Email string
	Name  string
	Token string
}

// Notifier delivers a notification. Implementations own templating,
// transport, and retries.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}
