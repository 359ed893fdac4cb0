// Package email defines the outbound message model shared by the dispatcher and
// the mail transports.
package email

import (
	"errors"
	"fmt"
	"net/mail"
)

// ErrNoRecipients is returned by Validate when a message has no To address.
var ErrNoRecipients = errors.New("message has no recipients")

// Address is a display name plus mailbox.
type Address struct {
	Name    string
	Address string
}

// String formats the address for a From header, RFC 2047 encoding the name.
func (a Address) String() string {
	if a.Name == "" {
		return a.Address
	}
	return (&mail.Address{Name: a.Name, Address: a.Address}).String()
}

// Email is one message handed to a provider. A submission that targets both
// staff and the submitter produces two of them.
type Email struct {
	From        Address
	To          []string
	ReplyTo     string
	Subject     string
	TextBody    string
	HTMLBody    string
	Attachments []Attachment
}

// Attachment is a decoded file ready for sending. ContentType may be empty, in
// which case the transport picks one from the filename.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte

	// Err is set when the submitted content could not be decoded. The message
	// carrying it fails at send time.
	Err error
}

// Validate reports problems that would make the message undeliverable.
func (e *Email) Validate() error {
	if len(e.To) == 0 {
		return ErrNoRecipients
	}
	for _, att := range e.Attachments {
		if att.Err != nil {
			return fmt.Errorf("attachment %q: %w", att.Filename, att.Err)
		}
	}
	return nil
}
