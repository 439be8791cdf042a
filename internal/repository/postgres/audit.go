package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/repository"

	"github.com/google/uuid"
)

type auditRepository struct {
	db DBTX
}

func NewAuditRepository(db DBTX) repository.AuditRepository {
	return &auditRepository{db: db}
}

// Create is the only writer of audit_logs; rows are never updated.
func (r *auditRepository) Create(ctx context.Context, e *domain.AuditLog) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	changes, err := marshalMap(e.Changes)
	if err != nil {
		return fmt.Errorf("encode changes: %w", err)
	}
	metadata, err := marshalMap(e.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	query := `INSERT INTO audit_logs (id, tenant_id, entity_type, entity_id, action, changes, metadata, user_id)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`
	err = r.db.QueryRowContext(ctx, query, e.ID, e.TenantID, e.EntityType, e.EntityID, e.Action, changes, metadata, e.UserID).
		Scan(&e.CreatedAt)
	return mapError(err)
}

func (r *auditRepository) ListByEntity(ctx context.Context, tenantID uuid.UUID, entityType domain.AuditEntity, entityID uuid.UUID) ([]domain.AuditLog, error) {
	query := `SELECT id, tenant_id, entity_type, entity_id, action, changes, metadata, user_id, created_at
	          FROM audit_logs WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, tenantID, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditLog
	for rows.Next() {
		var e domain.AuditLog
		var changes, metadata []byte
		if err := rows.Scan(&e.ID, &e.TenantID, &e.EntityType, &e.EntityID, &e.Action, &changes, &metadata, &e.UserID, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(changes, &e.Changes); err != nil {
			return nil, fmt.Errorf("decode changes: %w", err)
		}
		if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func marshalMap(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}
