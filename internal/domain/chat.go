package domain

import (
	"time"
)

const MaxMessageLength = 2000

type Message struct {
	ID         int64     `json:"id"`
	OrderID    int64     `json:"order_id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID *int64    `json:"receiver_id,omitempty"`
	Content    string    `json:"content"`
	SentAt     time.Time `json:"sent_at"`
	IsRead     bool      `json:"is_read"`
}

// IsBroadcast reports whether the message targets the whole order group.
func (m *Message) IsBroadcast() bool {
	return m.ReceiverID == nil
}

type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Text      string    `json:"text"`
	OrderID   *int64    `json:"order_id,omitempty"`
	MessageID *int64    `json:"message_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	IsRead    bool      `json:"is_read"`
}
