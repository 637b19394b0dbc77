package handler

import (
	"order_chat/internal/config"
	"order_chat/internal/hub"
	"order_chat/internal/service"
	"order_chat/pkg/logger"
)

type Handlers struct {
	Health       *HealthHandler
	Chat         *ChatHandler
	Notification *NotificationHandler
	WebSocket    *WebSocketHandler
}

func NewHandlers(services *service.Services, registry *hub.Registry, auth Identifier, cfg *config.Config, log logger.Logger) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(registry, cfg.Database.Driver, cfg.Hub.Broker),
		Chat:         NewChatHandler(services.Chat, log),
		Notification: NewNotificationHandler(services.Notification, log),
		WebSocket: NewWebSocketHandler(
			auth,
			services.Presence,
			services.Chat,
			services.RateLimit,
			registry,
			cfg.Server.AllowedOrigins,
			cfg.Hub,
			log,
		),
	}
}
