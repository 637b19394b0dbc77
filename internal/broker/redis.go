package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"order_chat/internal/hub"
	"order_chat/pkg/logger"
)

const (
	targetUser  = "user"
	targetGroup = "group"
)

// Envelope is what travels over the Redis channel between instances.
type Envelope struct {
	Target string          `json:"target"`
	UserID int64           `json:"user_id,omitempty"`
	Group  string          `json:"group,omitempty"`
	Frame  json.RawMessage `json:"frame"`
}

// LocalDeliverer is the part of the registry the broker writes into.
type LocalDeliverer interface {
	DeliverToUser(userID int64, frame []byte) int
	DeliverToGroup(group string, frame []byte) int
}

// RedisRouter publishes routed events to a Redis channel. Every instance
// runs Start and delivers what it receives to its own connections, so a user
// connected to any instance is reached.
type RedisRouter struct {
	rdb     *redis.Client
	channel string
	local   LocalDeliverer
	log     logger.Logger
}

var _ hub.Router = (*RedisRouter)(nil)

func NewRedisRouter(rdb *redis.Client, channel string, local LocalDeliverer, log logger.Logger) *RedisRouter {
	return &RedisRouter{
		rdb:     rdb,
		channel: channel,
		local:   local,
		log:     log,
	}
}

func (r *RedisRouter) RouteToUser(ctx context.Context, userID int64, event string, payload interface{}) error {
	frame, err := hub.EncodeFrame(event, payload)
	if err != nil {
		return err
	}
	return r.publish(ctx, &Envelope{Target: targetUser, UserID: userID, Frame: frame})
}

func (r *RedisRouter) RouteToGroup(ctx context.Context, group string, event string, payload interface{}) error {
	frame, err := hub.EncodeFrame(event, payload)
	if err != nil {
		return err
	}
	return r.publish(ctx, &Envelope{Target: targetGroup, Group: group, Frame: frame})
}

func (r *RedisRouter) publish(ctx context.Context, env *Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	if err := r.rdb.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.log.Warn("Failed to publish chat event", "error", err, "target", env.Target, "user_id", env.UserID, "group", env.Group)
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Start subscribes to the channel and blocks delivering envelopes until ctx
// is done.
func (r *RedisRouter) Start(ctx context.Context) error {
	pubsub := r.rdb.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	r.log.Info("Subscribed to chat events", "channel", r.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			r.log.Info("Stopping chat event subscriber")
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.Deliver([]byte(msg.Payload))
		}
	}
}

// Deliver decodes one envelope and hands it to the local registry.
func (r *RedisRouter) Deliver(raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		r.log.Warn("Failed to parse chat event", "error", err)
		return
	}

	switch env.Target {
	case targetUser:
		r.local.DeliverToUser(env.UserID, env.Frame)
	case targetGroup:
		r.local.DeliverToGroup(env.Group, env.Frame)
	default:
		r.log.Warn("Unknown chat event target", "target", env.Target)
	}
}
