package postgres

import (
	"context"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/logger"
	"fleetrent-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type invoiceRepository struct {
	db DBTX
}

func NewInvoiceRepository(db DBTX) repository.InvoiceRepository {
	return &invoiceRepository{db: db}
}

const invoiceColumns = `id, tenant_id, contract_id, number, status, total_amount, balance, issued_at, updated_at`

func scanInvoice(row rowScanner, inv *domain.Invoice) error {
	return row.Scan(&inv.ID, &inv.TenantID, &inv.ContractID, &inv.Number, &inv.Status, &inv.TotalAmount, &inv.Balance, &inv.IssuedAt, &inv.UpdatedAt)
}

// Create reports ErrDuplicate when the contract already has an invoice.
func (r *invoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	logger.EnterMethod("invoiceRepository.Create", "contractID", inv.ContractID)
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	query := `INSERT INTO invoices (id, tenant_id, contract_id, number, status, total_amount, balance, issued_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING updated_at`
	logger.DatabaseCall("insert", query, "invoiceID", inv.ID)
	err := r.db.QueryRowContext(ctx, query, inv.ID, inv.TenantID, inv.ContractID, inv.Number, inv.Status,
		inv.TotalAmount, inv.Balance, inv.IssuedAt).Scan(&inv.UpdatedAt)
	if err != nil {
		logger.ExitMethodWithError("invoiceRepository.Create", err, "contractID", inv.ContractID)
		return mapError(err)
	}
	logger.ExitMethod("invoiceRepository.Create", "invoiceID", inv.ID)
	return nil
}

func (r *invoiceRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Invoice, error) {
	inv := &domain.Invoice{}
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE tenant_id = $1 AND id = $2`
	if err := scanInvoice(r.db.QueryRowContext(ctx, query, tenantID, id), inv); err != nil {
		return nil, mapError(err)
	}
	return inv, nil
}

func (r *invoiceRepository) GetByContractID(ctx context.Context, tenantID, contractID uuid.UUID) (*domain.Invoice, error) {
	inv := &domain.Invoice{}
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE tenant_id = $1 AND contract_id = $2`
	if err := scanInvoice(r.db.QueryRowContext(ctx, query, tenantID, contractID), inv); err != nil {
		return nil, mapError(err)
	}
	return inv, nil
}

func (r *invoiceRepository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, from, to domain.InvoiceStatus) error {
	query := `UPDATE invoices SET status=$4, updated_at=NOW() WHERE tenant_id=$1 AND id=$2 AND status=$3`
	res, err := r.db.ExecContext(ctx, query, tenantID, id, from, to)
	return expectAffected("invoiceRepository.UpdateStatus", res, err)
}

func (r *invoiceRepository) ApplyPayment(ctx context.Context, tenantID, id uuid.UUID, expectedBalance, newBalance decimal.Decimal, status domain.InvoiceStatus) error {
	query := `UPDATE invoices SET balance=$4, status=$5, updated_at=NOW()
	          WHERE tenant_id=$1 AND id=$2 AND balance=$3`
	res, err := r.db.ExecContext(ctx, query, tenantID, id, expectedBalance, newBalance, status)
	return expectAffected("invoiceRepository.ApplyPayment", res, err)
}

type paymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	query := `INSERT INTO payments (id, tenant_id, invoice_id, amount, method, reference, paid_at, recorded_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, p.ID, p.TenantID, p.InvoiceID, p.Amount, p.Method, p.Reference, p.PaidAt, p.RecordedBy).
		Scan(&p.CreatedAt)
	return mapError(err)
}

func (r *paymentRepository) ListByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]domain.Payment, error) {
	query := `SELECT id, tenant_id, invoice_id, amount, method, reference, paid_at, recorded_by, created_at
	          FROM payments WHERE tenant_id = $1 AND invoice_id = $2 ORDER BY paid_at`
	rows, err := r.db.QueryContext(ctx, query, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.TenantID, &p.InvoiceID, &p.Amount, &p.Method, &p.Reference, &p.PaidAt, &p.RecordedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
