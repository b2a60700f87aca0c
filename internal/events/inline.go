package events

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// InlinePublisher entrega el evento al Handler en una goroutine, sin broker.
type InlinePublisher struct {
	logger  *zap.Logger
	handler Handler
	timeout time.Duration
}

func NewInlinePublisher(logger *zap.Logger, handler Handler) *InlinePublisher {
	return &InlinePublisher{logger: logger, handler: handler, timeout: 30 * time.Second}
}

func (p *InlinePublisher) Publish(_ context.Context, event Event) error {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if err := p.handler.Handle(ctx, event); err != nil {
			p.logger.Warn("inline event handler failed", zap.String("type", event.Type), zap.Error(err))
		}
	}()
	return nil
}
