// Package notify delivers operator notifications. The only concrete channel
// is Telegram; Service keeps callers decoupled so trading code can run with
// notifications disabled.
package notify

import "context"

type Service interface {
	// SendText delivers a text message, prefixed with the base currency
	// when one is given.
	SendText(ctx context.Context, base, message string) error
	// SendImage delivers an image blob (a rendered chart, typically).
	SendImage(ctx context.Context, image []byte) error
}

// Nop discards every notification.
type Nop struct{}

func (Nop) SendText(ctx context.Context, base, message string) error { return nil }

func (Nop) SendImage(ctx context.Context, image []byte) error { return nil }
