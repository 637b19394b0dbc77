package domain

import (
	"time"
)

type AuditLog struct {
	ID          int64                  `json:"id"`
	EventTime   time.Time              `json:"event_time"`
	ActorUserID *int64                 `json:"actor_user_id,omitempty"`
	ActorRole   string                 `json:"actor_role"`
	OrderID     *int64                 `json:"order_id,omitempty"`
	EventType   string                 `json:"event_type"`
	Payload     map[string]interface{} `json:"payload"`
}

const (
	EventTypeChatJoinDenied = "CHAT_JOIN_DENIED"
	EventTypeChatSendDenied = "CHAT_SEND_DENIED"
)
