package postgres

import (
	"context"
	"time"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/repository"

	"github.com/google/uuid"
)

type maintenanceRepository struct {
	db DBTX
}

func NewMaintenanceRepository(db DBTX) repository.MaintenanceRepository {
	return &maintenanceRepository{db: db}
}

const maintenanceColumns = `id, tenant_id, vehicle_id, type, description, status, start_date, end_date,
	estimated_cost, final_cost, created_by, created_at, updated_at`

func scanMaintenance(row rowScanner, m *domain.MaintenanceRecord) error {
	return row.Scan(&m.ID, &m.TenantID, &m.VehicleID, &m.Type, &m.Description, &m.Status, &m.StartDate, &m.EndDate,
		&m.EstimatedCost, &m.FinalCost, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
}

func (r *maintenanceRepository) Create(ctx context.Context, m *domain.MaintenanceRecord) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	query := `INSERT INTO maintenance_records (id, tenant_id, vehicle_id, type, description, status, start_date, estimated_cost, created_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, m.ID, m.TenantID, m.VehicleID, m.Type, m.Description, m.Status,
		m.StartDate, m.EstimatedCost, m.CreatedBy).Scan(&m.CreatedAt, &m.UpdatedAt)
	return mapError(err)
}

func (r *maintenanceRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.MaintenanceRecord, error) {
	m := &domain.MaintenanceRecord{}
	query := `SELECT ` + maintenanceColumns + ` FROM maintenance_records WHERE tenant_id = $1 AND id = $2`
	if err := scanMaintenance(r.db.QueryRowContext(ctx, query, tenantID, id), m); err != nil {
		return nil, mapError(err)
	}
	return m, nil
}

func (r *maintenanceRepository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, from, to domain.MaintenanceStatus) error {
	query := `UPDATE maintenance_records SET status=$4, updated_at=NOW() WHERE tenant_id=$1 AND id=$2 AND status=$3`
	res, err := r.db.ExecContext(ctx, query, tenantID, id, from, to)
	return expectAffected("maintenanceRepository.UpdateStatus", res, err)
}

func (r *maintenanceRepository) Complete(ctx context.Context, m *domain.MaintenanceRecord, from domain.MaintenanceStatus) error {
	query := `UPDATE maintenance_records SET status=$4, end_date=$5, final_cost=$6, updated_at=NOW()
	          WHERE tenant_id=$1 AND id=$2 AND status=$3`
	res, err := r.db.ExecContext(ctx, query, m.TenantID, m.ID, from, domain.MaintenanceStatusCompleted, m.EndDate, m.FinalCost)
	if err := expectAffected("maintenanceRepository.Complete", res, err); err != nil {
		return err
	}
	m.Status = domain.MaintenanceStatusCompleted
	return nil
}

func (r *maintenanceRepository) CountUnfinished(ctx context.Context, tenantID, vehicleID, excludeID uuid.UUID) (int, error) {
	var n int
	query := `SELECT count(*) FROM maintenance_records
	          WHERE tenant_id = $1 AND vehicle_id = $2 AND id <> $3 AND status <> $4`
	err := r.db.QueryRowContext(ctx, query, tenantID, vehicleID, excludeID, domain.MaintenanceStatusCompleted).Scan(&n)
	return n, err
}

func (r *maintenanceRepository) ListByVehicle(ctx context.Context, tenantID, vehicleID uuid.UUID) ([]domain.MaintenanceRecord, error) {
	query := `SELECT ` + maintenanceColumns + ` FROM maintenance_records
	          WHERE tenant_id = $1 AND vehicle_id = $2 ORDER BY start_date DESC`
	return r.list(ctx, query, tenantID, vehicleID)
}

func (r *maintenanceRepository) ListStale(ctx context.Context, startedBefore time.Time) ([]domain.MaintenanceRecord, error) {
	query := `SELECT ` + maintenanceColumns + ` FROM maintenance_records
	          WHERE status <> $1 AND start_date < $2 ORDER BY tenant_id, start_date`
	return r.list(ctx, query, domain.MaintenanceStatusCompleted, startedBefore)
}

func (r *maintenanceRepository) list(ctx context.Context, query string, args ...any) ([]domain.MaintenanceRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.MaintenanceRecord
	for rows.Next() {
		var m domain.MaintenanceRecord
		if err := scanMaintenance(rows, &m); err != nil {
			return nil, err
		}
		records = append(records, m)
	}
	return records, rows.Err()
}
