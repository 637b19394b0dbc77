package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"order_chat/internal/domain"
	apperrors "order_chat/pkg/errors"
	"order_chat/pkg/logger"
)

type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	GetByID(ctx context.Context, id int64) (*domain.Message, error)
	// MarkRead flips an unread message addressed to receiverID. It reports
	// false when the message is missing, addressed to someone else or
	// already read.
	MarkRead(ctx context.Context, id, receiverID int64) (bool, error)
	// ListByOrder returns the order's broadcast messages plus the private
	// messages viewerID sent or received, oldest first.
	ListByOrder(ctx context.Context, orderID, viewerID int64, limit, offset int) ([]*domain.Message, error)
	CountUnreadByReceiver(ctx context.Context, receiverID int64) (int, error)
}

type messageRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewMessageRepository(db *pgxpool.Pool, log logger.Logger) MessageRepository {
	return &messageRepository{db: db, log: log}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	query := `
		INSERT INTO messages (order_id, sender_id, receiver_id, content, sent_at, is_read)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, sent_at
	`

	err := r.db.QueryRow(ctx, query,
		message.OrderID, message.SenderID, message.ReceiverID,
		message.Content, message.SentAt, message.IsRead,
	).Scan(&message.ID, &message.SentAt)
	if err != nil {
		r.log.Error("Failed to create message", "error", err, "order_id", message.OrderID)
		return err
	}

	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id int64) (*domain.Message, error) {
	query := `
		SELECT id, order_id, sender_id, receiver_id, content, sent_at, is_read
		FROM messages
		WHERE id = $1
	`

	message := &domain.Message{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&message.ID, &message.OrderID, &message.SenderID, &message.ReceiverID,
		&message.Content, &message.SentAt, &message.IsRead,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMessageNotFound
		}
		r.log.Error("Failed to get message", "error", err, "message_id", id)
		return nil, err
	}

	return message, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, id, receiverID int64) (bool, error) {
	query := `
		UPDATE messages SET is_read = TRUE
		WHERE id = $1 AND receiver_id = $2 AND is_read = FALSE
	`

	tag, err := r.db.Exec(ctx, query, id, receiverID)
	if err != nil {
		r.log.Error("Failed to mark message read", "error", err, "message_id", id)
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *messageRepository) ListByOrder(ctx context.Context, orderID, viewerID int64, limit, offset int) ([]*domain.Message, error) {
	query := `
		SELECT id, order_id, sender_id, receiver_id, content, sent_at, is_read
		FROM messages
		WHERE order_id = $1
		  AND (receiver_id IS NULL OR sender_id = $2 OR receiver_id = $2)
		ORDER BY sent_at ASC, id ASC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, orderID, viewerID, limit, offset)
	if err != nil {
		r.log.Error("Failed to get messages", "error", err, "order_id", orderID)
		return nil, err
	}
	defer rows.Close()

	messages := make([]*domain.Message, 0)
	for rows.Next() {
		message := &domain.Message{}
		if err := rows.Scan(
			&message.ID, &message.OrderID, &message.SenderID, &message.ReceiverID,
			&message.Content, &message.SentAt, &message.IsRead,
		); err != nil {
			r.log.Error("Failed to scan message", "error", err)
			return nil, err
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

func (r *messageRepository) CountUnreadByReceiver(ctx context.Context, receiverID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE receiver_id = $1 AND is_read = FALSE`, receiverID,
	).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count unread messages", "error", err, "receiver_id", receiverID)
		return 0, err
	}
	return count, nil
}
