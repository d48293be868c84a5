package directory

import (
	"context"

	"georesponse_backend/internal/events"
)

// RegisterHandlers subscribes the client to registry changes so cached
// directory responses are dropped when a facility is added, edited or
// removed.
func (c *Client) RegisterHandlers(bus events.Bus) {
	for _, name := range events.FacilityEventNames {
		bus.Subscribe(name, c)
	}
}

// Handle invalidates the response cache for any facility event.
func (c *Client) Handle(ctx context.Context, event events.Event) error {
	if err := c.InvalidateCache(ctx); err != nil {
		c.log.Warn("directory cache invalidation failed", "event", event.EventName(), "error", err)
		return err
	}
	c.log.Debug("directory cache invalidated", "event", event.EventName())
	return nil
}
