package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/repository"

	"github.com/google/uuid"
)

type inspectionRepository struct {
	db DBTX
}

func NewInspectionRepository(db DBTX) repository.InspectionRepository {
	return &inspectionRepository{db: db}
}

const inspectionColumns = `id, tenant_id, contract_id, kind, is_draft, mileage, fuel_level, damages, notes, created_by, created_at, finalized_at`

func scanInspection(row rowScanner, i *domain.Inspection) error {
	var damages []byte
	err := row.Scan(&i.ID, &i.TenantID, &i.ContractID, &i.Kind, &i.IsDraft, &i.Mileage, &i.FuelLevel,
		&damages, &i.Notes, &i.CreatedBy, &i.CreatedAt, &i.FinalizedAt)
	if err != nil {
		return err
	}
	if len(damages) > 0 {
		if err := json.Unmarshal(damages, &i.Damages); err != nil {
			return fmt.Errorf("decode damages: %w", err)
		}
	}
	return nil
}

func (r *inspectionRepository) Create(ctx context.Context, i *domain.Inspection) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Damages == nil {
		i.Damages = []domain.Damage{}
	}
	damages, err := json.Marshal(i.Damages)
	if err != nil {
		return fmt.Errorf("encode damages: %w", err)
	}
	query := `INSERT INTO inspections (id, tenant_id, contract_id, kind, is_draft, mileage, fuel_level, damages, notes, created_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING created_at`
	err = r.db.QueryRowContext(ctx, query, i.ID, i.TenantID, i.ContractID, i.Kind, i.IsDraft, i.Mileage, i.FuelLevel,
		damages, i.Notes, i.CreatedBy).Scan(&i.CreatedAt)
	return mapError(err)
}

func (r *inspectionRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Inspection, error) {
	i := &domain.Inspection{}
	query := `SELECT ` + inspectionColumns + ` FROM inspections WHERE tenant_id = $1 AND id = $2`
	if err := scanInspection(r.db.QueryRowContext(ctx, query, tenantID, id), i); err != nil {
		return nil, mapError(err)
	}
	return i, nil
}

func (r *inspectionRepository) GetByContractAndKind(ctx context.Context, tenantID, contractID uuid.UUID, kind domain.InspectionKind) (*domain.Inspection, error) {
	i := &domain.Inspection{}
	query := `SELECT ` + inspectionColumns + ` FROM inspections WHERE tenant_id = $1 AND contract_id = $2 AND kind = $3`
	if err := scanInspection(r.db.QueryRowContext(ctx, query, tenantID, contractID, kind), i); err != nil {
		return nil, mapError(err)
	}
	return i, nil
}

func (r *inspectionRepository) ListByContract(ctx context.Context, tenantID, contractID uuid.UUID) ([]domain.Inspection, error) {
	query := `SELECT ` + inspectionColumns + ` FROM inspections WHERE tenant_id = $1 AND contract_id = $2 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, tenantID, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var inspections []domain.Inspection
	for rows.Next() {
		var i domain.Inspection
		if err := scanInspection(rows, &i); err != nil {
			return nil, err
		}
		inspections = append(inspections, i)
	}
	return inspections, rows.Err()
}

// Finalize only flips drafts; a second call reports ErrStatusConflict.
func (r *inspectionRepository) Finalize(ctx context.Context, tenantID, id uuid.UUID, at time.Time) error {
	query := `UPDATE inspections SET is_draft = FALSE, finalized_at = $3 WHERE tenant_id = $1 AND id = $2 AND is_draft`
	res, err := r.db.ExecContext(ctx, query, tenantID, id, at)
	return expectAffected("inspectionRepository.Finalize", res, err)
}
