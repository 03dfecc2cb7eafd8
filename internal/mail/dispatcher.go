package mail

import (
	"context"
	"fmt"
	"log"
	"time"

	"matscout/server/internal/maillog"
)

// DispatchError reports a transport failure for one email. The dedup mark is
// removed before it is returned, so the send can be retried.
type DispatchError struct {
	Kind      string
	Recipient string
	Err       error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s to %s: %v", e.Kind, e.Recipient, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

type Dispatcher struct {
	log       maillog.Log
	transport Transport
	retention time.Duration
}

func NewDispatcher(log maillog.Log, transport Transport, retention time.Duration) *Dispatcher {
	return &Dispatcher{log: log, transport: transport, retention: retention}
}

// Send delivers the email unless an unexpired log entry for the same recipient
// and kind exists. It returns false with a nil error when the send was
// suppressed as a duplicate.
func (d *Dispatcher) Send(ctx context.Context, email Email) (bool, error) {
	if _, err := ParseKind(email.Kind); err != nil {
		return false, err
	}
	entry := maillog.Entry{
		Recipient: email.To,
		EmailType: email.Kind,
		UserID:    email.UserID,
		TeamID:    email.TeamID,
		CreatedAt: time.Now().UTC().Unix(),
	}
	created, err := d.log.MarkIfAbsent(ctx, entry, d.retention)
	if err != nil {
		// The log is bookkeeping, not the source of truth for "was it
		// sent": a log outage must not block delivery.
		log.Printf("mail: email log unavailable, sending anyway: %v", err)
		created = true
	}
	if !created {
		return false, nil
	}
	if err := d.transport.Send(ctx, email); err != nil {
		// Best effort: without the mark the next attempt reaches the
		// transport again.
		_ = d.log.Unmark(ctx, email.To, email.Kind)
		return false, &DispatchError{Kind: email.Kind, Recipient: email.To, Err: err}
	}
	return true, nil
}
