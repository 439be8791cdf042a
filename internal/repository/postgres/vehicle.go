package postgres

import (
	"context"
	"errors"
	"fmt"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/logger"
	"fleetrent-backend/internal/repository"

	"github.com/google/uuid"
)

type vehicleRepository struct {
	db DBTX
}

func NewVehicleRepository(db DBTX) repository.VehicleRepository {
	return &vehicleRepository{db: db}
}

const vehicleColumns = `id, tenant_id, category_id, plate, make, model, mileage, status, daily_rate, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVehicle(row rowScanner, v *domain.Vehicle) error {
	return row.Scan(&v.ID, &v.TenantID, &v.CategoryID, &v.Plate, &v.Make, &v.Model, &v.Mileage, &v.Status, &v.DailyRate, &v.CreatedAt, &v.UpdatedAt)
}

func (r *vehicleRepository) Create(ctx context.Context, v *domain.Vehicle) error {
	logger.EnterMethod("vehicleRepository.Create", "tenantID", v.TenantID, "plate", v.Plate)
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	query := `INSERT INTO vehicles (id, tenant_id, category_id, plate, make, model, mileage, status, daily_rate)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING created_at, updated_at`
	logger.DatabaseCall("insert", query, "vehicleID", v.ID)
	err := r.db.QueryRowContext(ctx, query, v.ID, v.TenantID, v.CategoryID, v.Plate, v.Make, v.Model, v.Mileage, v.Status, v.DailyRate).
		Scan(&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		logger.ExitMethodWithError("vehicleRepository.Create", err, "plate", v.Plate)
		return mapError(err)
	}
	logger.ExitMethod("vehicleRepository.Create", "vehicleID", v.ID)
	return nil
}

func (r *vehicleRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Vehicle, error) {
	v := &domain.Vehicle{}
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE tenant_id = $1 AND id = $2`
	if err := scanVehicle(r.db.QueryRowContext(ctx, query, tenantID, id), v); err != nil {
		return nil, mapError(err)
	}
	return v, nil
}

func (r *vehicleRepository) Update(ctx context.Context, v *domain.Vehicle) error {
	query := `UPDATE vehicles SET category_id=$3, plate=$4, make=$5, model=$6, daily_rate=$7, updated_at=NOW()
	          WHERE tenant_id=$1 AND id=$2`
	res, err := r.db.ExecContext(ctx, query, v.TenantID, v.ID, v.CategoryID, v.Plate, v.Make, v.Model, v.DailyRate)
	if err := expectAffected("vehicleRepository.Update", res, err); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return repository.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *vehicleRepository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, from, to domain.VehicleStatus) error {
	logger.EnterMethod("vehicleRepository.UpdateStatus", "vehicleID", id, "from", from, "to", to)
	query := `UPDATE vehicles SET status=$4, updated_at=NOW() WHERE tenant_id=$1 AND id=$2 AND status=$3`
	logger.DatabaseCall("update", query, "vehicleID", id)
	res, err := r.db.ExecContext(ctx, query, tenantID, id, from, to)
	if err := expectAffected("vehicleRepository.UpdateStatus", res, err); err != nil {
		logger.ExitMethodWithError("vehicleRepository.UpdateStatus", err, "vehicleID", id)
		return err
	}
	logger.ExitMethod("vehicleRepository.UpdateStatus", "vehicleID", id)
	return nil
}

func (r *vehicleRepository) UpdateMileage(ctx context.Context, tenantID, id uuid.UUID, mileage int) error {
	query := `UPDATE vehicles SET mileage=$3, updated_at=NOW() WHERE tenant_id=$1 AND id=$2`
	res, err := r.db.ExecContext(ctx, query, tenantID, id, mileage)
	if err := expectAffected("vehicleRepository.UpdateMileage", res, err); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return repository.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *vehicleRepository) Delete(ctx context.Context, tenantID, id uuid.UUID, expected domain.VehicleStatus) error {
	query := `DELETE FROM vehicles WHERE tenant_id=$1 AND id=$2 AND status=$3`
	res, err := r.db.ExecContext(ctx, query, tenantID, id, expected)
	return expectAffected("vehicleRepository.Delete", res, err)
}

func (r *vehicleRepository) List(ctx context.Context, tenantID uuid.UUID, status domain.VehicleStatus, page, pageSize int32) ([]domain.Vehicle, int32, error) {
	limit, offset := pageBounds(page, pageSize)
	sql := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE tenant_id = $1`

	args := []any{tenantID}
	argIdx := 2
	if status != "" {
		sql += " AND status = $2"
		args = append(args, status)
		argIdx++
	}

	var count int32
	countSQL := "SELECT count(*) FROM (" + sql + ") AS sub"
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	sql += fmt.Sprintf(" ORDER BY plate LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var vehicles []domain.Vehicle
	for rows.Next() {
		var v domain.Vehicle
		if err := scanVehicle(rows, &v); err != nil {
			return nil, 0, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, count, rows.Err()
}
