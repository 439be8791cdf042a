package service

import (
	"context"
	"time"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockStore runs WithTx callbacks directly against itself.
type MockStore struct {
	vehicles    *MockVehicleRepo
	clients     *MockClientRepo
	contracts   *MockContractRepo
	inspections *MockInspectionRepo
	invoices    *MockInvoiceRepo
	payments    *MockPaymentRepo
	maintenance *MockMaintenanceRepo
	audit       *MockAuditRepo
	txCount     int
}

func newMockStore() *MockStore {
	return &MockStore{
		vehicles:    new(MockVehicleRepo),
		clients:     new(MockClientRepo),
		contracts:   new(MockContractRepo),
		inspections: new(MockInspectionRepo),
		invoices:    new(MockInvoiceRepo),
		payments:    new(MockPaymentRepo),
		maintenance: new(MockMaintenanceRepo),
		audit:       new(MockAuditRepo),
	}
}

func (m *MockStore) Tenants() repository.TenantRepository         { return nil }
func (m *MockStore) Users() repository.UserRepository             { return nil }
func (m *MockStore) Vehicles() repository.VehicleRepository       { return m.vehicles }
func (m *MockStore) Clients() repository.ClientRepository         { return m.clients }
func (m *MockStore) Contracts() repository.ContractRepository     { return m.contracts }
func (m *MockStore) Inspections() repository.InspectionRepository { return m.inspections }
func (m *MockStore) Invoices() repository.InvoiceRepository       { return m.invoices }
func (m *MockStore) Payments() repository.PaymentRepository       { return m.payments }
func (m *MockStore) Maintenance() repository.MaintenanceRepository {
	return m.maintenance
}
func (m *MockStore) Audit() repository.AuditRepository { return m.audit }

func (m *MockStore) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	m.txCount++
	return fn(m)
}

func (m *MockStore) Ping(ctx context.Context) error { return nil }

func (m *MockStore) AssertExpectations(t mock.TestingT) {
	m.vehicles.AssertExpectations(t)
	m.clients.AssertExpectations(t)
	m.contracts.AssertExpectations(t)
	m.inspections.AssertExpectations(t)
	m.invoices.AssertExpectations(t)
	m.payments.AssertExpectations(t)
	m.maintenance.AssertExpectations(t)
	m.audit.AssertExpectations(t)
}

// MockVehicleRepo
type MockVehicleRepo struct {
	mock.Mock
}

func (m *MockVehicleRepo) Create(ctx context.Context, v *domain.Vehicle) error {
	return m.Called(ctx, v).Error(0)
}
func (m *MockVehicleRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Vehicle, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vehicle), args.Error(1)
}
func (m *MockVehicleRepo) Update(ctx context.Context, v *domain.Vehicle) error {
	return m.Called(ctx, v).Error(0)
}
func (m *MockVehicleRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, from, to domain.VehicleStatus) error {
	return m.Called(ctx, tenantID, id, from, to).Error(0)
}
func (m *MockVehicleRepo) UpdateMileage(ctx context.Context, tenantID, id uuid.UUID, mileage int) error {
	return m.Called(ctx, tenantID, id, mileage).Error(0)
}
func (m *MockVehicleRepo) Delete(ctx context.Context, tenantID, id uuid.UUID, expected domain.VehicleStatus) error {
	return m.Called(ctx, tenantID, id, expected).Error(0)
}
func (m *MockVehicleRepo) List(ctx context.Context, tenantID uuid.UUID, status domain.VehicleStatus, page, pageSize int32) ([]domain.Vehicle, int32, error) {
	args := m.Called(ctx, tenantID, status, page, pageSize)
	return args.Get(0).([]domain.Vehicle), args.Get(1).(int32), args.Error(2)
}

// MockClientRepo
type MockClientRepo struct {
	mock.Mock
}

func (m *MockClientRepo) Create(ctx context.Context, c *domain.Client) error {
	return m.Called(ctx, c).Error(0)
}
func (m *MockClientRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Client, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}
func (m *MockClientRepo) List(ctx context.Context, tenantID uuid.UUID, page, pageSize int32) ([]domain.Client, int32, error) {
	args := m.Called(ctx, tenantID, page, pageSize)
	return args.Get(0).([]domain.Client), args.Get(1).(int32), args.Error(2)
}

// MockContractRepo
type MockContractRepo struct {
	mock.Mock
}

func (m *MockContractRepo) Create(ctx context.Context, c *domain.RentalContract) error {
	return m.Called(ctx, c).Error(0)
}
func (m *MockContractRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.RentalContract, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalContract), args.Error(1)
}
func (m *MockContractRepo) List(ctx context.Context, tenantID uuid.UUID, f domain.ContractListFilter) ([]domain.RentalContract, int32, error) {
	args := m.Called(ctx, tenantID, f)
	return args.Get(0).([]domain.RentalContract), args.Get(1).(int32), args.Error(2)
}
func (m *MockContractRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, from, to domain.ContractStatus) error {
	return m.Called(ctx, tenantID, id, from, to).Error(0)
}
func (m *MockContractRepo) Approve(ctx context.Context, tenantID, id uuid.UUID, status domain.ContractStatus, termsAccepted bool) error {
	return m.Called(ctx, tenantID, id, status, termsAccepted).Error(0)
}
func (m *MockContractRepo) Complete(ctx context.Context, c *domain.RentalContract) error {
	return m.Called(ctx, c).Error(0)
}
func (m *MockContractRepo) Cancel(ctx context.Context, tenantID, id uuid.UUID, from domain.ContractStatus, reason string) error {
	return m.Called(ctx, tenantID, id, from, reason).Error(0)
}
func (m *MockContractRepo) ListOverdue(ctx context.Context, now time.Time) ([]domain.RentalContract, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]domain.RentalContract), args.Error(1)
}

// MockInspectionRepo
type MockInspectionRepo struct {
	mock.Mock
}

func (m *MockInspectionRepo) Create(ctx context.Context, i *domain.Inspection) error {
	return m.Called(ctx, i).Error(0)
}
func (m *MockInspectionRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Inspection, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Inspection), args.Error(1)
}
func (m *MockInspectionRepo) GetByContractAndKind(ctx context.Context, tenantID, contractID uuid.UUID, kind domain.InspectionKind) (*domain.Inspection, error) {
	args := m.Called(ctx, tenantID, contractID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Inspection), args.Error(1)
}
func (m *MockInspectionRepo) ListByContract(ctx context.Context, tenantID, contractID uuid.UUID) ([]domain.Inspection, error) {
	args := m.Called(ctx, tenantID, contractID)
	return args.Get(0).([]domain.Inspection), args.Error(1)
}
func (m *MockInspectionRepo) Finalize(ctx context.Context, tenantID, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, tenantID, id, at).Error(0)
}

// MockInvoiceRepo
type MockInvoiceRepo struct {
	mock.Mock
}

func (m *MockInvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	return m.Called(ctx, inv).Error(0)
}
func (m *MockInvoiceRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}
func (m *MockInvoiceRepo) GetByContractID(ctx context.Context, tenantID, contractID uuid.UUID) (*domain.Invoice, error) {
	args := m.Called(ctx, tenantID, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}
func (m *MockInvoiceRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, from, to domain.InvoiceStatus) error {
	return m.Called(ctx, tenantID, id, from, to).Error(0)
}
func (m *MockInvoiceRepo) ApplyPayment(ctx context.Context, tenantID, id uuid.UUID, expectedBalance, newBalance decimal.Decimal, status domain.InvoiceStatus) error {
	return m.Called(ctx, tenantID, id, expectedBalance, newBalance, status).Error(0)
}

// MockPaymentRepo
type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	return m.Called(ctx, p).Error(0)
}
func (m *MockPaymentRepo) ListByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]domain.Payment, error) {
	args := m.Called(ctx, tenantID, invoiceID)
	return args.Get(0).([]domain.Payment), args.Error(1)
}

// MockMaintenanceRepo
type MockMaintenanceRepo struct {
	mock.Mock
}

func (m *MockMaintenanceRepo) Create(ctx context.Context, r *domain.MaintenanceRecord) error {
	return m.Called(ctx, r).Error(0)
}
func (m *MockMaintenanceRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.MaintenanceRecord, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MaintenanceRecord), args.Error(1)
}
func (m *MockMaintenanceRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, from, to domain.MaintenanceStatus) error {
	return m.Called(ctx, tenantID, id, from, to).Error(0)
}
func (m *MockMaintenanceRepo) Complete(ctx context.Context, r *domain.MaintenanceRecord, from domain.MaintenanceStatus) error {
	return m.Called(ctx, r, from).Error(0)
}
func (m *MockMaintenanceRepo) CountUnfinished(ctx context.Context, tenantID, vehicleID, excludeID uuid.UUID) (int, error) {
	args := m.Called(ctx, tenantID, vehicleID, excludeID)
	return args.Int(0), args.Error(1)
}
func (m *MockMaintenanceRepo) ListByVehicle(ctx context.Context, tenantID, vehicleID uuid.UUID) ([]domain.MaintenanceRecord, error) {
	args := m.Called(ctx, tenantID, vehicleID)
	return args.Get(0).([]domain.MaintenanceRecord), args.Error(1)
}
func (m *MockMaintenanceRepo) ListStale(ctx context.Context, startedBefore time.Time) ([]domain.MaintenanceRecord, error) {
	args := m.Called(ctx, startedBefore)
	return args.Get(0).([]domain.MaintenanceRecord), args.Error(1)
}

// MockAuditRepo
type MockAuditRepo struct {
	mock.Mock
}

func (m *MockAuditRepo) Create(ctx context.Context, e *domain.AuditLog) error {
	return m.Called(ctx, e).Error(0)
}
func (m *MockAuditRepo) ListByEntity(ctx context.Context, tenantID uuid.UUID, entityType domain.AuditEntity, entityID uuid.UUID) ([]domain.AuditLog, error) {
	args := m.Called(ctx, tenantID, entityType, entityID)
	return args.Get(0).([]domain.AuditLog), args.Error(1)
}

// MockNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendContractApproved(ctx context.Context, client *domain.Client, contract *domain.RentalContract) error {
	return m.Called(ctx, client, contract).Error(0)
}
func (m *MockNotifier) SendInvoiceIssued(ctx context.Context, client *domain.Client, invoice *domain.Invoice) error {
	return m.Called(ctx, client, invoice).Error(0)
}
func (m *MockNotifier) SendReport(ctx context.Context, to, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}

// staticSession resolves every call to the same user.
type staticSession struct {
	user *domain.CurrentUser
}

func (s staticSession) CurrentUser(ctx context.Context) (*domain.CurrentUser, error) {
	return s.user, nil
}

// countingSession counts how often the guard resolves the session.
type countingSession struct {
	user  *domain.CurrentUser
	calls int
}

func (s *countingSession) CurrentUser(ctx context.Context) (*domain.CurrentUser, error) {
	s.calls++
	return s.user, nil
}

func newUser(role domain.UserRole, tenantID uuid.UUID) *domain.CurrentUser {
	return &domain.CurrentUser{ID: uuid.New(), TenantID: tenantID, Role: role, IsActive: true}
}

// auditAction matches an audit entry by entity and action.
func auditAction(entity domain.AuditEntity, action domain.AuditAction) any {
	return mock.MatchedBy(func(e *domain.AuditLog) bool {
		return e.EntityType == entity && e.Action == action
	})
}

// decEq matches a decimal argument by value rather than representation.
func decEq(n int64) any {
	return mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.NewFromInt(n))
	})
}
