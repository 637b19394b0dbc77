// Package subscriber consumes order lifecycle events published by the order
// subsystem and forwards them to chat connections.
package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"order_chat/internal/domain"
	"order_chat/internal/hub"
	"order_chat/pkg/logger"
)

// OrderStatusEvent is the payload published on the order channel.
type OrderStatusEvent struct {
	OrderID   int64              `json:"order_id"`
	Status    domain.OrderStatus `json:"status"`
	Timestamp int64              `json:"timestamp,omitempty"`
}

type OrderEventSubscriber struct {
	rdb     *redis.Client
	channel string
	router  hub.Router
	log     logger.Logger
}

func NewOrderEventSubscriber(rdb *redis.Client, channel string, router hub.Router, log logger.Logger) *OrderEventSubscriber {
	return &OrderEventSubscriber{
		rdb:     rdb,
		channel: channel,
		router:  router,
		log:     log,
	}
}

// Start blocks until ctx is done.
func (s *OrderEventSubscriber) Start(ctx context.Context) error {
	pubsub := s.rdb.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.channel, err)
	}
	s.log.Info("Subscribed to order events", "channel", s.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("Stopping order event subscriber")
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			handleCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := s.Handle(handleCtx, []byte(msg.Payload)); err != nil {
				s.log.Warn("Failed to handle order event", "error", err, "payload", msg.Payload)
			}
			cancel()
		}
	}
}

// Handle notifies the order's chat group of a status change. Orders that
// become ReadyForDelivery are also announced to all delivery persons.
// Existing group members are never removed here.
func (s *OrderEventSubscriber) Handle(ctx context.Context, raw []byte) error {
	var event OrderStatusEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return fmt.Errorf("failed to parse order event: %w", err)
	}
	if event.OrderID <= 0 || event.Status == "" {
		return fmt.Errorf("incomplete order event: %s", raw)
	}

	payload := domain.OrderStatusEvent{OrderID: event.OrderID, Status: event.Status}
	if err := s.router.RouteToGroup(ctx, domain.OrderGroup(event.OrderID), domain.EventOrderStatusChanged, payload); err != nil {
		return err
	}

	if event.Status == domain.OrderStatusReadyForDelivery {
		if err := s.router.RouteToGroup(ctx, domain.GroupDeliveryPersons, domain.EventOrderAvailable, payload); err != nil {
			return err
		}
	}

	s.log.Debug("Order event forwarded", "order_id", event.OrderID, "status", event.Status)
	return nil
}
