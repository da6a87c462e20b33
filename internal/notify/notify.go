// Package notify is the outbound hook for the real-time delivery layer.
// Events are fire-and-forget: publish failures are logged by the caller and
// never abort a message operation.
package notify

import (
	"context"

	"github.com/schoolink-dev/schoolink/internal/domain"
)

// MessageEvent describes a freshly created message or reply for push delivery.
type MessageEvent struct {
	MessageId  domain.MessageId   `json:"message_id"`
	TenantId   domain.TenantId    `json:"tenant_id"`
	Type       domain.MessageType `json:"type"`
	SenderId   domain.UserId      `json:"sender_id"`
	Recipients []domain.UserId    `json:"recipients"`
}

type Notifier interface {
	MessageCreated(ctx context.Context, event MessageEvent) error
}

// Noop discards every event. Used when no real-time layer is configured.
type Noop struct{}

func (Noop) MessageCreated(context.Context, MessageEvent) error { return nil }
