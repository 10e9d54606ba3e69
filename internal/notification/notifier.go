// Package notification turns product events received from a broker into operator notifications.
package notification

import (
	"context"
	"log/slog"

	"github.com/iyhunko/wallart-storefront/internal/metrics"
	"github.com/iyhunko/wallart-storefront/internal/model"
)

// Notifier logs one structured line per product event.
type Notifier struct {
	logger *slog.Logger
}

// NewNotifier creates a Notifier writing to logger, or to slog.Default when logger is nil.
func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{logger: logger}
}

// HandleProductMessage records the notification for msg.
func (n *Notifier) HandleProductMessage(ctx context.Context, msg model.ProductMessage) error {
	if err := msg.Validate(); err != nil {
		metrics.NotificationsReceived.WithLabelValues(labelMalformed).Inc()
		return err
	}

	attrs := []slog.Attr{
		slog.String("action", msg.Action),
		slog.String("product_id", msg.ProductID),
		slog.String("title", msg.Title),
		slog.String("category", msg.Category),
		slog.Int("variant_count", msg.VariantCount),
	}
	if msg.VariantCount > 0 {
		attrs = append(attrs, slog.Float64("min_price", msg.MinPrice))
	}
	n.logger.LogAttrs(ctx, slog.LevelInfo, "Received product notification", attrs...)

	metrics.NotificationsReceived.WithLabelValues(actionLabel(msg.Action)).Inc()
	return nil
}

// Metric label values. Actions come from the broker, so anything unknown is folded into "other".
const (
	labelCreated   = "created"
	labelDeleted   = "deleted"
	labelOther     = "other"
	labelMalformed = "malformed"
)

func actionLabel(action string) string {
	switch action {
	case labelCreated, labelDeleted:
		return action
	}
	return labelOther
}
