package postgres

import (
	"context"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/repository"

	"github.com/google/uuid"
)

type clientRepository struct {
	db DBTX
}

func NewClientRepository(db DBTX) repository.ClientRepository {
	return &clientRepository{db: db}
}

const clientColumns = `id, tenant_id, full_name, email, phone, is_trusted, created_at`

func (r *clientRepository) Create(ctx context.Context, c *domain.Client) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	query := `INSERT INTO clients (id, tenant_id, full_name, email, phone, is_trusted)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, c.ID, c.TenantID, c.FullName, c.Email, c.Phone, c.IsTrusted).Scan(&c.CreatedAt)
	return mapError(err)
}

func (r *clientRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Client, error) {
	c := &domain.Client{}
	query := `SELECT ` + clientColumns + ` FROM clients WHERE tenant_id = $1 AND id = $2`
	err := r.db.QueryRowContext(ctx, query, tenantID, id).
		Scan(&c.ID, &c.TenantID, &c.FullName, &c.Email, &c.Phone, &c.IsTrusted, &c.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return c, nil
}

func (r *clientRepository) List(ctx context.Context, tenantID uuid.UUID, page, pageSize int32) ([]domain.Client, int32, error) {
	limit, offset := pageBounds(page, pageSize)

	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM clients WHERE tenant_id = $1`, tenantID).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + clientColumns + ` FROM clients WHERE tenant_id = $1 ORDER BY full_name LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		var c domain.Client
		if err := rows.Scan(&c.ID, &c.TenantID, &c.FullName, &c.Email, &c.Phone, &c.IsTrusted, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		clients = append(clients, c)
	}
	return clients, count, rows.Err()
}
