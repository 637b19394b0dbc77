package domain

// Events pushed to clients.
const (
	EventReceiveMessage      = "ReceiveMessage"
	EventReceiveNotification = "ReceiveNotification"
	EventMessageRead         = "MessageRead"
	EventJoinedChat          = "JoinedChat"
	EventLeftChat            = "LeftChat"
	EventOrderStatusChanged  = "OrderStatusChanged"
	EventOrderAvailable      = "OrderAvailable"
	EventError               = "Error"
)

type MessageReadEvent struct {
	MessageID int64 `json:"message_id"`
	OrderID   int64 `json:"order_id"`
	ReaderID  int64 `json:"reader_id"`
}

type ChatMembershipEvent struct {
	OrderID int64 `json:"order_id"`
}

type OrderStatusEvent struct {
	OrderID int64       `json:"order_id"`
	Status  OrderStatus `json:"status"`
}

type ErrorEvent struct {
	RequestID string `json:"request_id,omitempty"`
	Error     string `json:"error"`
	Code      int    `json:"code"`
}
