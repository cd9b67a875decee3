// Package notify provides delivery backends for the Notifier port.
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/identitykit/identity-core/internal/core/ports"
)

// LogNotifier is the development delivery backend: it records that a message
// would have been sent instead of sending one. The token itself is logged at
// debug level only, so production log levels never emit live tokens.
type LogNotifier struct {
	log zerolog.Logger
}

var _ ports.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(_ context.Context, msg ports.Notification) error {
	n.log.Info().
		Str("kind", string(msg.Kind)).
		Str("email", msg.Email).
		Msg("notification dispatched")
	n.log.Debug().
		Str("kind", string(msg.Kind)).
		Str("token", msg.Token).
		Msg("notification token")
	return nil
}
