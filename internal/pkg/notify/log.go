package notify

import (
	"context"

	"github.com/gofiber/fiber/v2/log"
)

// LogDispatcher only logs. It is used when no delivery backend is configured.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(ctx context.Context, n Notification) error {
	log.Infof("[Notify] %s for order %s to %s (total %s)", n.Kind, n.Order.Reference, n.Destination, n.Order.TotalAmount.StringFixed(2))
	return nil
}
