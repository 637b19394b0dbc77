package service

import (
	"context"
	"time"

	"order_chat/internal/domain"
	"order_chat/internal/repository"
	"order_chat/pkg/logger"
)

type AuditService interface {
	LogEvent(ctx context.Context, actor domain.Identity, orderID *int64, eventType string, payload map[string]interface{}) error
}

type auditService struct {
	auditRepo repository.AuditRepository
	log       logger.Logger
}

func NewAuditService(auditRepo repository.AuditRepository, log logger.Logger) AuditService {
	return &auditService{
		auditRepo: auditRepo,
		log:       log,
	}
}

func (s *auditService) LogEvent(ctx context.Context, actor domain.Identity, orderID *int64, eventType string, payload map[string]interface{}) error {
	if payload == nil {
		payload = make(map[string]interface{})
	}

	var actorID *int64
	if actor.UserID > 0 {
		id := actor.UserID
		actorID = &id
	}

	auditLog := &domain.AuditLog{
		EventTime:   time.Now().UTC(),
		ActorUserID: actorID,
		ActorRole:   string(actor.Role),
		OrderID:     orderID,
		EventType:   eventType,
		Payload:     payload,
	}

	return s.auditRepo.CreateLog(ctx, auditLog)
}

// recordDenied writes an access-denied audit entry. Failures are only logged.
func recordDenied(ctx context.Context, audit AuditService, log logger.Logger, actor domain.Identity, orderID int64, eventType string) {
	if audit == nil {
		return
	}
	if err := audit.LogEvent(ctx, actor, &orderID, eventType, nil); err != nil {
		log.Warn("Failed to write audit log", "error", err, "event_type", eventType, "order_id", orderID)
	}
}
