package memory

import (
	"context"
	"sort"
	"time"

	"order_chat/internal/domain"
	"order_chat/internal/repository"
	apperrors "order_chat/pkg/errors"
)

type notificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(_ context.Context, n *domain.Notification) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.notificationSeq++
	n.ID = r.db.notificationSeq
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	cp := *n
	r.db.notifications[cp.ID] = &cp
	return nil
}

func (r *notificationRepository) ListByUser(_ context.Context, userID int64, unreadOnly bool, limit, offset int) ([]*domain.Notification, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	all := make([]*domain.Notification, 0)
	for _, n := range r.db.notifications {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		cp := *n
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	return page(all, limit, offset), nil
}

func (r *notificationRepository) MarkRead(_ context.Context, id, userID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	n, ok := r.db.notifications[id]
	if !ok || n.UserID != userID {
		return apperrors.ErrNotFound
	}
	n.IsRead = true
	return nil
}

func (r *notificationRepository) CountUnread(_ context.Context, userID int64) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	count := 0
	for _, n := range r.db.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}
