package service

import (
	"order_chat/internal/config"
	"order_chat/internal/hub"
	"order_chat/internal/repository"
	"order_chat/pkg/logger"
)

type Services struct {
	Chat         ChatService
	Notification NotificationService
	Presence     PresenceService
	RateLimit    RateLimitService
	Audit        AuditService
}

func NewServices(repos *repository.Repositories, registry ConnectionRegistry, router hub.Router, cfg *config.Config, log logger.Logger) *Services {
	audit := NewAuditService(repos.Audit, log)
	notification := NewNotificationService(repos.Notification, router, log)

	services := &Services{
		Audit:        audit,
		Notification: notification,
		Chat:         NewChatService(repos.Order, repos.Restaurant, repos.Message, notification, audit, router, log),
		Presence:     NewPresenceService(registry, repos.Order, repos.Restaurant, audit, log),
	}

	// Rate limiting needs Redis; without it sends are unthrottled.
	if repos.RateLimit != nil {
		services.RateLimit = NewRateLimitService(repos.RateLimit, cfg.RateLimit.Requests, cfg.RateLimit.Window, log)
	} else {
		log.Warn("RateLimit repository is nil, send rate limiting disabled")
	}

	return services
}
