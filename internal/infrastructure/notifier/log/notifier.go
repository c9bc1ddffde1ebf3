package lognotifier

import (
	"context"

	"github.com/ark-network/ark-dice/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

type notifier struct{}

// New returns a notifier that writes messages to the server log, for operators without a
// nostr profile.
func New() ports.Notifier {
	return &notifier{}
}

func (n *notifier) Notify(_ context.Context, to any, message string) error {
	log.WithField("to", to).Warn(message)
	return nil
}
