package handlers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/identity-service/internal/core/port"
	"github.com/campushub/identity-service/internal/infra/logger"
)

// Code purposes rendered into the delivery subject line.
const (
	PurposeVerification  = "account verification"
	PurposeLogin         = "login"
	PurposePasswordReset = "password reset"
)

// CodeNotification captures everything needed to deliver a one-time code.
type CodeNotification struct {
	Email    string
	FullName string
	Purpose  string
	Code     string
	Expires  time.Time
}

// NotificationDispatcher hands one-time codes to the delivery sink.
type NotificationDispatcher interface {
	SendCode(ctx context.Context, payload CodeNotification) error
}

type noopDispatcher struct{}

func (noopDispatcher) SendCode(ctx context.Context, payload CodeNotification) error {
	return nil
}

// SinkDispatcher renders code messages and delivers them through a Notifier.
// Delivery failures are logged, never surfaced; the code stays valid and the
// caller can retry the flow.
type SinkDispatcher struct {
	notifier port.Notifier
	logger   *zap.Logger
}

// NewSinkDispatcher builds a dispatcher over the given delivery sink.
func NewSinkDispatcher(notifier port.Notifier, log *zap.Logger) NotificationDispatcher {
	if notifier == nil {
		return noopDispatcher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SinkDispatcher{notifier: notifier, logger: log}
}

func (d *SinkDispatcher) SendCode(ctx context.Context, payload CodeNotification) error {
	subject := fmt.Sprintf("Your %s code", payload.Purpose)

	greeting := "Hello"
	if payload.FullName != "" {
		greeting = "Hello " + payload.FullName
	}

	body := fmt.Sprintf(
		"%s,\n\nYour %s code is %s. It expires at %s.\n\nIf you did not request this code, ignore this message.\n",
		greeting, payload.Purpose, payload.Code, payload.Expires.Format(time.RFC1123),
	)

	if err := d.notifier.Send(ctx, payload.Email, subject, body); err != nil {
		d.logger.Warn("code delivery failed",
			zap.String("email", logger.MaskEmail(payload.Email)),
			zap.String("purpose", payload.Purpose),
			zap.Error(err))
		return err
	}

	return nil
}
