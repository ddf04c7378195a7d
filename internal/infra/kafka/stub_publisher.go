package kafka

import (
	"context"

	"go.uber.org/zap"

	"github.com/campushub/identity-service/internal/core/domain"
	"github.com/campushub/identity-service/internal/core/port"
	"github.com/campushub/identity-service/internal/infra/logger"
)

// StubPublisher logs events instead of publishing them. Used when no brokers
// are configured.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a logging stand-in for the event publisher.
func NewStubPublisher(log *zap.Logger) port.EventPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &StubPublisher{logger: log}
}

func (p *StubPublisher) PublishAuthEvent(_ context.Context, event domain.AuthEvent) error {
	p.logger.Debug("auth event (stub publisher)",
		zap.String("kind", event.Kind),
		zap.Int64("account_id", event.AccountID),
		zap.String("email", logger.MaskEmail(event.Email)),
	)
	return nil
}

func (p *StubPublisher) Close() error {
	return nil
}
