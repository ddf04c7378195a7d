package port

import (
	"context"

	"github.com/campushub/identity-service/internal/core/domain"
)

// EventPublisher fans out auth events to the message bus. Publication is
// best-effort; authentication flows never fail on publish errors.
type EventPublisher interface {
	PublishAuthEvent(ctx context.Context, event domain.AuthEvent) error
	Close() error
}
