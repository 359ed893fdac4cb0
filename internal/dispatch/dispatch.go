// Package dispatch sends a composed submission to staff and, when asked, to
// the submitter.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/antqd/emailsender/internal/email"
	"github.com/antqd/emailsender/internal/provider"
)

// ErrNoTargets is returned when a request has neither internal recipients nor
// a client address.
var ErrNoTargets = errors.New("no recipients to send to")

// Request is everything needed to send one submission.
type Request struct {
	Subject     string
	HTML        string
	Attachments []email.Attachment

	// Internal receives the staff copy, with Reply-To set to ReplyTo.
	Internal []string
	ReplyTo  string

	// Client, when set, receives its own copy without Reply-To.
	Client            string
	ClientAttachments bool

	// Brand overrides the configured sender display name.
	Brand string
}

// Dispatcher owns the process-wide transport.
type Dispatcher struct {
	provider provider.Provider
	sender   string
	brand    string
}

// New creates a Dispatcher sending from sender with brand as the default
// display name.
func New(p provider.Provider, sender, brand string) *Dispatcher {
	return &Dispatcher{
		provider: p,
		sender:   sender,
		brand:    brand,
	}
}

// Dispatch sends the internal and client copies concurrently and waits for
// both. Any failed send fails the whole call; the other copy is not recalled.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) error {
	msgs := d.messages(req)
	if len(msgs) == 0 {
		return ErrNoTargets
	}

	var g errgroup.Group
	for _, m := range msgs {
		m := m
		g.Go(func() error {
			return d.send(ctx, m)
		})
	}

	return g.Wait()
}

func (d *Dispatcher) messages(req Request) []*email.Email {
	from := email.Address{Name: d.brand, Address: d.sender}
	if req.Brand != "" {
		from.Name = req.Brand
	}

	var msgs []*email.Email

	if len(req.Internal) > 0 {
		msgs = append(msgs, &email.Email{
			From:        from,
			To:          req.Internal,
			ReplyTo:     req.ReplyTo,
			Subject:     req.Subject,
			HTMLBody:    req.HTML,
			Attachments: req.Attachments,
		})
	}

	if req.Client != "" {
		client := &email.Email{
			From:     from,
			To:       []string{req.Client},
			Subject:  req.Subject,
			HTMLBody: req.HTML,
		}
		if req.ClientAttachments {
			client.Attachments = req.Attachments
		}
		msgs = append(msgs, client)
	}

	return msgs
}

func (d *Dispatcher) send(ctx context.Context, msg *email.Email) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("send to %v: %w", msg.To, err)
	}

	if err := d.provider.Send(ctx, msg); err != nil {
		return fmt.Errorf("send to %v via %s: %w", msg.To, d.provider.Name(), err)
	}

	slog.DebugContext(ctx, "email sent",
		"provider", d.provider.Name(),
		"to", msg.To,
		"attachments", len(msg.Attachments),
	)

	return nil
}
