package postgres

import (
	"context"
	"fmt"
	"time"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/logger"
	"fleetrent-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type contractRepository struct {
	db DBTX
}

func NewContractRepository(db DBTX) repository.ContractRepository {
	return &contractRepository{db: db}
}

const contractColumns = `id, tenant_id, client_id, vehicle_id, status, start_date, end_date,
	daily_rate, options_amount, discount_amount, deposit_amount, total_amount, damages_amount,
	terms_accepted, actual_return_date, return_mileage, cancel_reason, created_by, created_at, updated_at`

func scanContract(row rowScanner, c *domain.RentalContract) error {
	return row.Scan(&c.ID, &c.TenantID, &c.ClientID, &c.VehicleID, &c.Status, &c.StartDate, &c.EndDate,
		&c.DailyRate, &c.OptionsAmount, &c.DiscountAmount, &c.DepositAmount, &c.TotalAmount, &c.DamagesAmount,
		&c.TermsAccepted, &c.ActualReturnDate, &c.ReturnMileage, &c.CancelReason, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
}

func (r *contractRepository) Create(ctx context.Context, c *domain.RentalContract) error {
	logger.EnterMethod("contractRepository.Create", "tenantID", c.TenantID, "vehicleID", c.VehicleID)
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	query := `INSERT INTO rental_contracts (id, tenant_id, client_id, vehicle_id, status, start_date, end_date,
	              daily_rate, options_amount, discount_amount, deposit_amount, total_amount, damages_amount,
	              terms_accepted, created_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	          RETURNING created_at, updated_at`
	logger.DatabaseCall("insert", query, "contractID", c.ID)
	err := r.db.QueryRowContext(ctx, query, c.ID, c.TenantID, c.ClientID, c.VehicleID, c.Status, c.StartDate, c.EndDate,
		c.DailyRate, c.OptionsAmount, c.DiscountAmount, c.DepositAmount, c.TotalAmount, c.DamagesAmount,
		c.TermsAccepted, c.CreatedBy).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		logger.ExitMethodWithError("contractRepository.Create", err, "vehicleID", c.VehicleID)
		return mapError(err)
	}
	logger.ExitMethod("contractRepository.Create", "contractID", c.ID)
	return nil
}

func (r *contractRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.RentalContract, error) {
	c := &domain.RentalContract{}
	query := `SELECT ` + contractColumns + ` FROM rental_contracts WHERE tenant_id = $1 AND id = $2`
	if err := scanContract(r.db.QueryRowContext(ctx, query, tenantID, id), c); err != nil {
		return nil, mapError(err)
	}
	return c, nil
}

func (r *contractRepository) List(ctx context.Context, tenantID uuid.UUID, f domain.ContractListFilter) ([]domain.RentalContract, int32, error) {
	logger.EnterMethod("contractRepository.List", "tenantID", tenantID, "statuses", f.Statuses)
	limit, offset := pageBounds(f.Page, f.PageSize)

	sql := `SELECT ` + contractColumns + ` FROM rental_contracts WHERE tenant_id = $1`
	args := []any{tenantID}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
		sql += fmt.Sprintf(" AND status = ANY($%d)", len(args))
	}
	if f.ClientID != nil {
		args = append(args, *f.ClientID)
		sql += fmt.Sprintf(" AND client_id = $%d", len(args))
	}
	if f.VehicleID != nil {
		args = append(args, *f.VehicleID)
		sql += fmt.Sprintf(" AND vehicle_id = $%d", len(args))
	}

	var count int32
	countSQL := "SELECT count(*) FROM (" + sql + ") AS sub"
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&count); err != nil {
		logger.ExitMethodWithError("contractRepository.List", err)
		return nil, 0, err
	}

	sql += fmt.Sprintf(" ORDER BY start_date DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, sql, args...)
	if err != nil {
		logger.ExitMethodWithError("contractRepository.List", err)
		return nil, 0, err
	}
	defer rows.Close()

	var contracts []domain.RentalContract
	for rows.Next() {
		var c domain.RentalContract
		if err := scanContract(rows, &c); err != nil {
			logger.ExitMethodWithError("contractRepository.List", err)
			return nil, 0, err
		}
		contracts = append(contracts, c)
	}
	logger.ExitMethod("contractRepository.List", "count", len(contracts), "total", count)
	return contracts, count, rows.Err()
}

func (r *contractRepository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, from, to domain.ContractStatus) error {
	logger.EnterMethod("contractRepository.UpdateStatus", "contractID", id, "from", from, "to", to)
	query := `UPDATE rental_contracts SET status=$4, updated_at=NOW() WHERE tenant_id=$1 AND id=$2 AND status=$3`
	res, err := r.db.ExecContext(ctx, query, tenantID, id, from, to)
	if err := expectAffected("contractRepository.UpdateStatus", res, err); err != nil {
		logger.ExitMethodWithError("contractRepository.UpdateStatus", err, "contractID", id)
		return err
	}
	logger.ExitMethod("contractRepository.UpdateStatus", "contractID", id)
	return nil
}

func (r *contractRepository) Approve(ctx context.Context, tenantID, id uuid.UUID, status domain.ContractStatus, termsAccepted bool) error {
	query := `UPDATE rental_contracts SET status=$4, terms_accepted=$5, updated_at=NOW()
	          WHERE tenant_id=$1 AND id=$2 AND status=$3`
	res, err := r.db.ExecContext(ctx, query, tenantID, id, domain.ContractStatusDraft, status, termsAccepted)
	return expectAffected("contractRepository.Approve", res, err)
}

func (r *contractRepository) Complete(ctx context.Context, c *domain.RentalContract) error {
	logger.EnterMethod("contractRepository.Complete", "contractID", c.ID)
	query := `UPDATE rental_contracts
	          SET status=$4, actual_return_date=$5, return_mileage=$6, damages_amount=$7, total_amount=$8, updated_at=NOW()
	          WHERE tenant_id=$1 AND id=$2 AND status=$3`
	res, err := r.db.ExecContext(ctx, query, c.TenantID, c.ID, domain.ContractStatusActive, domain.ContractStatusCompleted,
		c.ActualReturnDate, c.ReturnMileage, c.DamagesAmount, c.TotalAmount)
	if err := expectAffected("contractRepository.Complete", res, err); err != nil {
		logger.ExitMethodWithError("contractRepository.Complete", err, "contractID", c.ID)
		return err
	}
	c.Status = domain.ContractStatusCompleted
	logger.ExitMethod("contractRepository.Complete", "contractID", c.ID)
	return nil
}

func (r *contractRepository) Cancel(ctx context.Context, tenantID, id uuid.UUID, from domain.ContractStatus, reason string) error {
	query := `UPDATE rental_contracts SET status=$4, cancel_reason=$5, updated_at=NOW()
	          WHERE tenant_id=$1 AND id=$2 AND status=$3`
	res, err := r.db.ExecContext(ctx, query, tenantID, id, from, domain.ContractStatusCancelled, reason)
	return expectAffected("contractRepository.Cancel", res, err)
}

func (r *contractRepository) ListOverdue(ctx context.Context, now time.Time) ([]domain.RentalContract, error) {
	query := `SELECT ` + contractColumns + ` FROM rental_contracts
	          WHERE status = $1 AND end_date < $2 ORDER BY tenant_id, end_date`
	rows, err := r.db.QueryContext(ctx, query, domain.ContractStatusActive, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contracts []domain.RentalContract
	for rows.Next() {
		var c domain.RentalContract
		if err := scanContract(rows, &c); err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}
