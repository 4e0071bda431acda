package mailer

import (
	"context"
	"fmt"

	"github.com/frahmantamala/hr-management/internal/core/events"
)

type Subscriber interface {
	Subscribe(eventType string, handler events.Handler)
}

// RegisterHandlers turns account mail events into queued messages.
func (c *Client) RegisterHandlers(bus Subscriber) {
	bus.Subscribe(events.EventTypePasswordResetRequested, c.handleAccountMail)
	bus.Subscribe(events.EventTypeVerificationRequested, c.handleAccountMail)
}

func (c *Client) handleAccountMail(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.AccountMailEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T for %s", event, event.EventType())
	}

	var msg Message
	switch e.EventType() {
	case events.EventTypePasswordResetRequested:
		msg = PasswordResetMessage(c.cfg.FrontendURL, e.Email, e.Username, e.Token)
	case events.EventTypeVerificationRequested:
		msg = VerificationMessage(c.cfg.FrontendURL, e.Email, e.Username, e.Token)
	default:
		return nil
	}
	return c.Send(msg)
}
