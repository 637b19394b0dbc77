package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"order_chat/pkg/logger"
)

type Repositories struct {
	Order        OrderRepository
	Restaurant   RestaurantRepository
	Message      MessageRepository
	Notification NotificationRepository
	Audit        AuditRepository
	RateLimit    RateLimitRepository
}

// NewRepositories wires the Postgres stores. rdb may be nil, in which case
// rate limiting is disabled.
func NewRepositories(db *pgxpool.Pool, rdb *redis.Client, log logger.Logger) *Repositories {
	repos := &Repositories{
		Order:        NewOrderRepository(db, log),
		Restaurant:   NewRestaurantRepository(db, log),
		Message:      NewMessageRepository(db, log),
		Notification: NewNotificationRepository(db, log),
		Audit:        NewAuditRepository(db, log),
	}
	if rdb != nil {
		repos.RateLimit = NewRateLimitRepository(rdb, log)
	}

	log.Info("Postgres repositories initialized", "rate_limit", repos.RateLimit != nil)
	return repos
}
