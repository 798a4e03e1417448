// Package worker runs background consumers of refresh broadcasts.
package worker

import (
	"context"
	"errors"

	"artikujt/internal/amqp"
	applog "artikujt/internal/log"
)

// Invalidator drops a cached source.
type Invalidator interface {
	Invalidate(location string)
}

// Consumer delivers refresh broadcasts until ctx is done.
type Consumer interface {
	ConsumeRefresh(ctx context.Context, handler amqp.RefreshHandler) error
}

// RefreshWorker invalidates the local cache when another instance refreshes.
type RefreshWorker struct {
	invalidator Invalidator
	origin      string
	logger      *applog.Logger
}

func NewRefreshWorker(inv Invalidator, origin string, logger *applog.Logger) *RefreshWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &RefreshWorker{
		invalidator: inv,
		origin:      origin,
		logger:      logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleRefreshMessage invalidates msg.Source unless this instance sent it.
func (w *RefreshWorker) HandleRefreshMessage(ctx context.Context, msg *amqp.RefreshMessage) error {
	if msg.Origin != "" && msg.Origin == w.origin {
		w.logger.DebugContext(ctx, "Ignoring own refresh broadcast", applog.FieldSource, msg.Source)
		return nil
	}

	w.invalidator.Invalidate(msg.Source)
	w.logger.InfoContext(ctx, "Source invalidated by remote refresh",
		applog.FieldSource, msg.Source,
		applog.FieldInstanceID, msg.Origin,
		applog.FieldOperation, applog.OpInvalidate)
	return nil
}

// Run consumes broadcasts until ctx is cancelled.
func (w *RefreshWorker) Run(ctx context.Context, c Consumer) error {
	w.logger.InfoContext(ctx, "Refresh worker started", applog.FieldInstanceID, w.origin)
	err := c.ConsumeRefresh(ctx, w.HandleRefreshMessage)
	if errors.Is(err, context.Canceled) {
		w.logger.InfoContext(ctx, "Refresh worker stopped")
		return nil
	}
	return err
}
