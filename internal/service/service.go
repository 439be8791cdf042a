package service

import (
	"context"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/utils"

	"github.com/google/uuid"
)

type VehicleService interface {
	CreateVehicle(ctx context.Context, in CreateVehicleInput) (*domain.Vehicle, error)
	UpdateVehicle(ctx context.Context, in UpdateVehicleInput) (*domain.Vehicle, error)
	GetVehicle(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error)
	ListVehicles(ctx context.Context, in ListVehiclesInput) (*Page[domain.Vehicle], error)
	DeleteVehicle(ctx context.Context, id uuid.UUID) error
	ChangeVehicleStatus(ctx context.Context, in ChangeVehicleStatusInput) (*domain.Vehicle, error)
}

type ClientService interface {
	CreateClient(ctx context.Context, in CreateClientInput) (*domain.Client, error)
	GetClient(ctx context.Context, id uuid.UUID) (*domain.Client, error)
	ListClients(ctx context.Context, page, pageSize int32) (*Page[domain.Client], error)
}

type ContractService interface {
	CreateContract(ctx context.Context, in CreateContractInput) (*domain.RentalContract, error)
	ApproveContract(ctx context.Context, in ApproveContractInput) (*domain.RentalContract, error)
	ActivateContract(ctx context.Context, contractID uuid.UUID) (*domain.RentalContract, error)
	// ValidateReturn closes an active contract and issues its invoice.
	ValidateReturn(ctx context.Context, in ValidateReturnInput) (*ReturnResult, error)
	CancelContract(ctx context.Context, in CancelContractInput) (*domain.RentalContract, error)
	GetContract(ctx context.Context, id uuid.UUID) (*domain.RentalContract, error)
	ListContracts(ctx context.Context, in ListContractsInput) (*Page[domain.RentalContract], error)
}

type InspectionService interface {
	RecordInspection(ctx context.Context, in RecordInspectionInput) (*domain.Inspection, error)
	// FinalizeInspection activates the contract when the inspection is a
	// departure inspection.
	FinalizeInspection(ctx context.Context, inspectionID uuid.UUID) (*domain.Inspection, error)
	ListInspections(ctx context.Context, contractID uuid.UUID) ([]domain.Inspection, error)
}

type MaintenanceService interface {
	OpenMaintenance(ctx context.Context, in OpenMaintenanceInput) (*domain.MaintenanceRecord, error)
	StartMaintenance(ctx context.Context, recordID uuid.UUID) (*domain.MaintenanceRecord, error)
	CloseMaintenance(ctx context.Context, in CloseMaintenanceInput) (*domain.MaintenanceRecord, error)
	ListMaintenance(ctx context.Context, vehicleID uuid.UUID) ([]domain.MaintenanceRecord, error)
}

type BillingService interface {
	RecordPayment(ctx context.Context, in RecordPaymentInput) (*domain.Invoice, error)
	ChangeInvoiceStatus(ctx context.Context, in ChangeInvoiceStatusInput) (*domain.Invoice, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	ListAuditLogs(ctx context.Context, in ListAuditLogsInput) ([]domain.AuditLog, error)
}

// Notifier sends transactional email. Every caller treats delivery as best
// effort.
type Notifier interface {
	SendContractApproved(ctx context.Context, client *domain.Client, contract *domain.RentalContract) error
	SendInvoiceIssued(ctx context.Context, client *domain.Client, invoice *domain.Invoice) error
	SendReport(ctx context.Context, to, subject, body string) error
}

type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int32 `json:"total"`
	Page     int32 `json:"page"`
	PageSize int32 `json:"page_size"`
}

type ReturnResult struct {
	Contract  *domain.RentalContract    `json:"contract"`
	Invoice   *domain.Invoice           `json:"invoice"`
	Breakdown utils.RentalCostBreakdown `json:"breakdown"`
}
