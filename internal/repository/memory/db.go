// Package memory holds in-process implementations of the repository
// interfaces, used for local development (STORAGE_DRIVER=memory) and tests.
package memory

import (
	"sync"
	"time"

	"order_chat/internal/domain"
	"order_chat/internal/repository"
)

type DB struct {
	mu            sync.RWMutex
	orders        map[int64]*domain.Order
	restaurants   map[int64]*domain.Restaurant
	messages      map[int64]*domain.Message
	notifications map[int64]*domain.Notification
	auditLogs     []*domain.AuditLog

	messageSeq      int64
	notificationSeq int64
	auditSeq        int64
}

func NewDB() *DB {
	return &DB{
		orders:        make(map[int64]*domain.Order),
		restaurants:   make(map[int64]*domain.Restaurant),
		messages:      make(map[int64]*domain.Message),
		notifications: make(map[int64]*domain.Notification),
	}
}

// NewRepositories returns repositories backed by db. Rate limiting is left
// unset.
func NewRepositories(db *DB) *repository.Repositories {
	return &repository.Repositories{
		Order:        NewOrderRepository(db),
		Restaurant:   NewRestaurantRepository(db),
		Message:      NewMessageRepository(db),
		Notification: NewNotificationRepository(db),
		Audit:        NewAuditRepository(db),
	}
}

func (db *DB) PutRestaurant(r domain.Restaurant) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.restaurants[r.ID] = &r
}

func (db *DB) PutOrder(o domain.Order) {
	db.mu.Lock()
	defer db.mu.Unlock()

	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	db.orders[o.ID] = &o
}

// SetOrderStatus reports false when the order does not exist.
func (db *DB) SetOrderStatus(orderID int64, status domain.OrderStatus) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	o, ok := db.orders[orderID]
	if !ok {
		return false
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	return true
}

func (db *DB) MessageCount() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.messages)
}

func (db *DB) Notifications() []domain.Notification {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make([]domain.Notification, 0, len(db.notifications))
	for id := int64(1); id <= db.notificationSeq; id++ {
		if n, ok := db.notifications[id]; ok {
			out = append(out, *n)
		}
	}
	return out
}

func (db *DB) AuditLogs() []domain.AuditLog {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make([]domain.AuditLog, 0, len(db.auditLogs))
	for _, l := range db.auditLogs {
		out = append(out, *l)
	}
	return out
}
