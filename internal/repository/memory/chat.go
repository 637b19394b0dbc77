package memory

import (
	"context"
	"sort"
	"time"

	"order_chat/internal/domain"
	"order_chat/internal/repository"
	apperrors "order_chat/pkg/errors"
)

type messageRepository struct {
	db *DB
}

func NewMessageRepository(db *DB) repository.MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(_ context.Context, message *domain.Message) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.messageSeq++
	message.ID = r.db.messageSeq
	if message.SentAt.IsZero() {
		message.SentAt = time.Now().UTC()
	}
	cp := *message
	r.db.messages[cp.ID] = &cp
	return nil
}

func (r *messageRepository) GetByID(_ context.Context, id int64) (*domain.Message, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	m, ok := r.db.messages[id]
	if !ok {
		return nil, apperrors.ErrMessageNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *messageRepository) MarkRead(_ context.Context, id, receiverID int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	m, ok := r.db.messages[id]
	if !ok || m.ReceiverID == nil || *m.ReceiverID != receiverID || m.IsRead {
		return false, nil
	}
	m.IsRead = true
	return true, nil
}

func (r *messageRepository) ListByOrder(_ context.Context, orderID, viewerID int64, limit, offset int) ([]*domain.Message, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	all := make([]*domain.Message, 0)
	for _, m := range r.db.messages {
		if m.OrderID != orderID {
			continue
		}
		if m.ReceiverID == nil || m.SenderID == viewerID || *m.ReceiverID == viewerID {
			cp := *m
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].SentAt.Equal(all[j].SentAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].SentAt.Before(all[j].SentAt)
	})

	return page(all, limit, offset), nil
}

func (r *messageRepository) CountUnreadByReceiver(_ context.Context, receiverID int64) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	count := 0
	for _, m := range r.db.messages {
		if m.ReceiverID != nil && *m.ReceiverID == receiverID && !m.IsRead {
			count++
		}
	}
	return count, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
