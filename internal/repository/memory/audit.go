package memory

import (
	"context"

	"order_chat/internal/domain"
	"order_chat/internal/repository"
)

type auditRepository struct {
	db *DB
}

func NewAuditRepository(db *DB) repository.AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) CreateLog(_ context.Context, log *domain.AuditLog) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.auditSeq++
	log.ID = r.db.auditSeq
	cp := *log
	r.db.auditLogs = append(r.db.auditLogs, &cp)
	return nil
}
