// Package provider defines the interface for mail transports.
package provider

import (
	"context"

	"github.com/antqd/emailsender/internal/email"
)

// Provider delivers one message. Implementations are created once at startup
// and shared by all requests, so Send must be safe for concurrent use.
//
//go:generate go run go.uber.org/mock/mockgen@latest -source=provider.go -destination=../mocks/provider.go -package=mocks
type Provider interface {
	// Send delivers msg. It does not retry.
	Send(ctx context.Context, msg *email.Email) error

	// Name returns the transport name used in logs.
	Name() string
}
