package repository

import (
	"context"
	"errors"
	"time"

	"fleetrent-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when no row matches the id inside the tenant.
	ErrNotFound = errors.New("record not found")
	// ErrStatusConflict is returned when a conditional update matched zero
	// rows because the row was no longer in the expected state.
	ErrStatusConflict = errors.New("record is not in the expected state")
	ErrDuplicate      = errors.New("duplicate record")
	// ErrInUse is returned when a delete is blocked by rows referencing the record.
	ErrInUse = errors.New("record is referenced by other records")
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *domain.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
	List(ctx context.Context) ([]domain.Tenant, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.User, error)
	ListByRole(ctx context.Context, tenantID uuid.UUID, role domain.UserRole) ([]domain.User, error)
}

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *domain.Vehicle) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Vehicle, error)
	// Update writes the descriptive fields only; status and mileage have
	// their own conditional writers.
	Update(ctx context.Context, vehicle *domain.Vehicle) error
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, from, to domain.VehicleStatus) error
	UpdateMileage(ctx context.Context, tenantID, id uuid.UUID, mileage int) error
	Delete(ctx context.Context, tenantID, id uuid.UUID, expected domain.VehicleStatus) error
	List(ctx context.Context, tenantID uuid.UUID, status domain.VehicleStatus, page, pageSize int32) ([]domain.Vehicle, int32, error)
}

type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Client, error)
	List(ctx context.Context, tenantID uuid.UUID, page, pageSize int32) ([]domain.Client, int32, error)
}

type ContractRepository interface {
	Create(ctx context.Context, contract *domain.RentalContract) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.RentalContract, error)
	List(ctx context.Context, tenantID uuid.UUID, filter domain.ContractListFilter) ([]domain.RentalContract, int32, error)
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, from, to domain.ContractStatus) error
	// Approve moves a draft contract to status and records terms acceptance.
	Approve(ctx context.Context, tenantID, id uuid.UUID, status domain.ContractStatus, termsAccepted bool) error
	// Complete persists the return data of an active contract and marks it completed.
	Complete(ctx context.Context, contract *domain.RentalContract) error
	Cancel(ctx context.Context, tenantID, id uuid.UUID, from domain.ContractStatus, reason string) error
	// ListOverdue spans all tenants; it backs read-only scheduled reports.
	ListOverdue(ctx context.Context, now time.Time) ([]domain.RentalContract, error)
}

type InspectionRepository interface {
	Create(ctx context.Context, inspection *domain.Inspection) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Inspection, error)
	GetByContractAndKind(ctx context.Context, tenantID, contractID uuid.UUID, kind domain.InspectionKind) (*domain.Inspection, error)
	ListByContract(ctx context.Context, tenantID, contractID uuid.UUID) ([]domain.Inspection, error)
	Finalize(ctx context.Context, tenantID, id uuid.UUID, at time.Time) error
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *domain.Invoice) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Invoice, error)
	GetByContractID(ctx context.Context, tenantID, contractID uuid.UUID) (*domain.Invoice, error)
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, from, to domain.InvoiceStatus) error
	// ApplyPayment only succeeds while the stored balance still equals
	// expectedBalance.
	ApplyPayment(ctx context.Context, tenantID, id uuid.UUID, expectedBalance, newBalance decimal.Decimal, status domain.InvoiceStatus) error
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	ListByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]domain.Payment, error)
}

type MaintenanceRepository interface {
	Create(ctx context.Context, record *domain.MaintenanceRecord) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.MaintenanceRecord, error)
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, from, to domain.MaintenanceStatus) error
	Complete(ctx context.Context, record *domain.MaintenanceRecord, from domain.MaintenanceStatus) error
	CountUnfinished(ctx context.Context, tenantID, vehicleID, excludeID uuid.UUID) (int, error)
	ListByVehicle(ctx context.Context, tenantID, vehicleID uuid.UUID) ([]domain.MaintenanceRecord, error)
	// ListStale spans all tenants; it backs read-only scheduled reports.
	ListStale(ctx context.Context, startedBefore time.Time) ([]domain.MaintenanceRecord, error)
}

type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	ListByEntity(ctx context.Context, tenantID uuid.UUID, entityType domain.AuditEntity, entityID uuid.UUID) ([]domain.AuditLog, error)
}

// Store groups the repositories that share one connection or transaction.
type Store interface {
	Tenants() TenantRepository
	Users() UserRepository
	Vehicles() VehicleRepository
	Clients() ClientRepository
	Contracts() ContractRepository
	Inspections() InspectionRepository
	Invoices() InvoiceRepository
	Payments() PaymentRepository
	Maintenance() MaintenanceRepository
	Audit() AuditRepository

	// WithTx runs fn against a Store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back on error or panic.
	WithTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}
