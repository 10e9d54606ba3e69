package service

import "context"

// ProcessEvents runs a single outbox polling round.
func (w *OutboxWorker) ProcessEvents(ctx context.Context) int {
	return w.processEvents(ctx)
}
