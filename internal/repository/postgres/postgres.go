package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"fleetrent-backend/internal/logger"
	"fleetrent-backend/internal/repository"

	"github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

// DBTX is satisfied by both *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	q  DBTX
	tx *sql.Tx
}

var _ repository.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

// Open connects to PostgreSQL and verifies the connection
func Open(ctx context.Context, dsn string, maxOpen, maxIdle int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	logger.Info("Applying database schema")
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Tenants() repository.TenantRepository { return NewTenantRepository(s.q) }
func (s *Store) Users() repository.UserRepository     { return NewUserRepository(s.q) }
func (s *Store) Vehicles() repository.VehicleRepository {
	return NewVehicleRepository(s.q)
}
func (s *Store) Clients() repository.ClientRepository { return NewClientRepository(s.q) }
func (s *Store) Contracts() repository.ContractRepository {
	return NewContractRepository(s.q)
}
func (s *Store) Inspections() repository.InspectionRepository {
	return NewInspectionRepository(s.q)
}
func (s *Store) Invoices() repository.InvoiceRepository { return NewInvoiceRepository(s.q) }
func (s *Store) Payments() repository.PaymentRepository { return NewPaymentRepository(s.q) }
func (s *Store) Maintenance() repository.MaintenanceRepository {
	return NewMaintenanceRepository(s.q)
}
func (s *Store) Audit() repository.AuditRepository { return NewAuditRepository(s.q) }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithTx joins the surrounding transaction when called on a transactional
// Store, so workflows can compose.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) (err error) {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.Error("Transaction rollback failed", "error", rbErr)
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("commit transaction: %w", cErr)
		}
	}()

	err = fn(&Store{db: s.db, q: tx, tx: tx})
	return err
}

// mapError translates driver errors into repository sentinels
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", repository.ErrDuplicate, pqErr.Constraint)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %s", repository.ErrInUse, pqErr.Constraint)
		}
	}
	return err
}

// expectAffected turns a zero row count into ErrStatusConflict
func expectAffected(operation string, res sql.Result, err error) error {
	if err != nil {
		logger.DatabaseResult(operation, 0, err)
		return mapError(err)
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult(operation, n, err)
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrStatusConflict
	}
	return nil
}

func pageBounds(page, pageSize int32) (limit, offset int32) {
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}
	return pageSize, (page - 1) * pageSize
}
