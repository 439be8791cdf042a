package grpc

import (
	"context"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/rbac"
	"fleetrent-backend/internal/service"
)

type FleetHandler struct {
	vehicles    service.VehicleService
	clients     service.ClientService
	contracts   service.ContractService
	inspections service.InspectionService
	maintenance service.MaintenanceService
	billing     service.BillingService
}

type Services struct {
	Vehicles    service.VehicleService
	Clients     service.ClientService
	Contracts   service.ContractService
	Inspections service.InspectionService
	Maintenance service.MaintenanceService
	Billing     service.BillingService
}

func NewFleetHandler(s Services) *FleetHandler {
	return &FleetHandler{
		vehicles:    s.Vehicles,
		clients:     s.Clients,
		contracts:   s.Contracts,
		inspections: s.Inspections,
		maintenance: s.Maintenance,
		billing:     s.Billing,
	}
}

var _ FleetServiceServer = (*FleetHandler)(nil)

// Vehicles

func (h *FleetHandler) CreateVehicle(ctx context.Context, req *service.CreateVehicleInput) service.Result[*domain.Vehicle] {
	return service.Run(ctx, "CreateVehicle", func(ctx context.Context) (*domain.Vehicle, error) {
		return h.vehicles.CreateVehicle(ctx, *req)
	})
}

func (h *FleetHandler) UpdateVehicle(ctx context.Context, req *service.UpdateVehicleInput) service.Result[*domain.Vehicle] {
	return service.Run(ctx, "UpdateVehicle", func(ctx context.Context) (*domain.Vehicle, error) {
		return h.vehicles.UpdateVehicle(ctx, *req)
	})
}

func (h *FleetHandler) GetVehicle(ctx context.Context, req *IDRequest) service.Result[*domain.Vehicle] {
	return service.Run(ctx, "GetVehicle", func(ctx context.Context) (*domain.Vehicle, error) {
		return h.vehicles.GetVehicle(ctx, req.ID)
	})
}

func (h *FleetHandler) ListVehicles(ctx context.Context, req *service.ListVehiclesInput) service.Result[*service.Page[domain.Vehicle]] {
	return service.Run(ctx, "ListVehicles", func(ctx context.Context) (*service.Page[domain.Vehicle], error) {
		return h.vehicles.ListVehicles(ctx, *req)
	})
}

func (h *FleetHandler) DeleteVehicle(ctx context.Context, req *IDRequest) service.Result[Empty] {
	return service.Run(ctx, "DeleteVehicle", func(ctx context.Context) (Empty, error) {
		return Empty{}, h.vehicles.DeleteVehicle(ctx, req.ID)
	})
}

func (h *FleetHandler) ChangeVehicleStatus(ctx context.Context, req *service.ChangeVehicleStatusInput) service.Result[*domain.Vehicle] {
	return service.Run(ctx, "ChangeVehicleStatus", func(ctx context.Context) (*domain.Vehicle, error) {
		return h.vehicles.ChangeVehicleStatus(ctx, *req)
	})
}

// Clients

func (h *FleetHandler) CreateClient(ctx context.Context, req *service.CreateClientInput) service.Result[*domain.Client] {
	return service.Run(ctx, "CreateClient", func(ctx context.Context) (*domain.Client, error) {
		return h.clients.CreateClient(ctx, *req)
	})
}

func (h *FleetHandler) GetClient(ctx context.Context, req *IDRequest) service.Result[*domain.Client] {
	return service.Run(ctx, "GetClient", func(ctx context.Context) (*domain.Client, error) {
		return h.clients.GetClient(ctx, req.ID)
	})
}

func (h *FleetHandler) ListClients(ctx context.Context, req *PageRequest) service.Result[*service.Page[domain.Client]] {
	return service.Run(ctx, "ListClients", func(ctx context.Context) (*service.Page[domain.Client], error) {
		return h.clients.ListClients(ctx, req.Page, req.PageSize)
	})
}

// Contracts

func (h *FleetHandler) CreateContract(ctx context.Context, req *service.CreateContractInput) service.Result[*domain.RentalContract] {
	return service.Run(ctx, "CreateContract", func(ctx context.Context) (*domain.RentalContract, error) {
		return h.contracts.CreateContract(ctx, *req)
	})
}

func (h *FleetHandler) ApproveContract(ctx context.Context, req *service.ApproveContractInput) service.Result[*domain.RentalContract] {
	return service.Run(ctx, "ApproveContract", func(ctx context.Context) (*domain.RentalContract, error) {
		return h.contracts.ApproveContract(ctx, *req)
	})
}

func (h *FleetHandler) ActivateContract(ctx context.Context, req *IDRequest) service.Result[*domain.RentalContract] {
	return service.Run(ctx, "ActivateContract", func(ctx context.Context) (*domain.RentalContract, error) {
		return h.contracts.ActivateContract(ctx, req.ID)
	})
}

func (h *FleetHandler) ValidateReturn(ctx context.Context, req *service.ValidateReturnInput) service.Result[*service.ReturnResult] {
	return service.Run(ctx, "ValidateReturn", func(ctx context.Context) (*service.ReturnResult, error) {
		return h.contracts.ValidateReturn(ctx, *req)
	})
}

func (h *FleetHandler) CancelContract(ctx context.Context, req *service.CancelContractInput) service.Result[*domain.RentalContract] {
	return service.Run(ctx, "CancelContract", func(ctx context.Context) (*domain.RentalContract, error) {
		return h.contracts.CancelContract(ctx, *req)
	})
}

func (h *FleetHandler) GetContract(ctx context.Context, req *IDRequest) service.Result[*domain.RentalContract] {
	return service.Run(ctx, "GetContract", func(ctx context.Context) (*domain.RentalContract, error) {
		return h.contracts.GetContract(ctx, req.ID)
	})
}

func (h *FleetHandler) ListContracts(ctx context.Context, req *service.ListContractsInput) service.Result[*service.Page[domain.RentalContract]] {
	return service.Run(ctx, "ListContracts", func(ctx context.Context) (*service.Page[domain.RentalContract], error) {
		return h.contracts.ListContracts(ctx, *req)
	})
}

// Inspections

func (h *FleetHandler) RecordInspection(ctx context.Context, req *service.RecordInspectionInput) service.Result[*domain.Inspection] {
	return service.Run(ctx, "RecordInspection", func(ctx context.Context) (*domain.Inspection, error) {
		return h.inspections.RecordInspection(ctx, *req)
	})
}

func (h *FleetHandler) FinalizeInspection(ctx context.Context, req *IDRequest) service.Result[*domain.Inspection] {
	return service.Run(ctx, "FinalizeInspection", func(ctx context.Context) (*domain.Inspection, error) {
		return h.inspections.FinalizeInspection(ctx, req.ID)
	})
}

func (h *FleetHandler) ListInspections(ctx context.Context, req *IDRequest) service.Result[[]domain.Inspection] {
	return service.Run(ctx, "ListInspections", func(ctx context.Context) ([]domain.Inspection, error) {
		return h.inspections.ListInspections(ctx, req.ID)
	})
}

// Maintenance

func (h *FleetHandler) OpenMaintenance(ctx context.Context, req *service.OpenMaintenanceInput) service.Result[*domain.MaintenanceRecord] {
	return service.Run(ctx, "OpenMaintenance", func(ctx context.Context) (*domain.MaintenanceRecord, error) {
		return h.maintenance.OpenMaintenance(ctx, *req)
	})
}

func (h *FleetHandler) StartMaintenance(ctx context.Context, req *IDRequest) service.Result[*domain.MaintenanceRecord] {
	return service.Run(ctx, "StartMaintenance", func(ctx context.Context) (*domain.MaintenanceRecord, error) {
		return h.maintenance.StartMaintenance(ctx, req.ID)
	})
}

func (h *FleetHandler) CloseMaintenance(ctx context.Context, req *service.CloseMaintenanceInput) service.Result[*domain.MaintenanceRecord] {
	return service.Run(ctx, "CloseMaintenance", func(ctx context.Context) (*domain.MaintenanceRecord, error) {
		return h.maintenance.CloseMaintenance(ctx, *req)
	})
}

func (h *FleetHandler) ListMaintenance(ctx context.Context, req *IDRequest) service.Result[[]domain.MaintenanceRecord] {
	return service.Run(ctx, "ListMaintenance", func(ctx context.Context) ([]domain.MaintenanceRecord, error) {
		return h.maintenance.ListMaintenance(ctx, req.ID)
	})
}

// Billing

func (h *FleetHandler) RecordPayment(ctx context.Context, req *service.RecordPaymentInput) service.Result[*domain.Invoice] {
	return service.Run(ctx, "RecordPayment", func(ctx context.Context) (*domain.Invoice, error) {
		return h.billing.RecordPayment(ctx, *req)
	})
}

func (h *FleetHandler) ChangeInvoiceStatus(ctx context.Context, req *service.ChangeInvoiceStatusInput) service.Result[*domain.Invoice] {
	return service.Run(ctx, "ChangeInvoiceStatus", func(ctx context.Context) (*domain.Invoice, error) {
		return h.billing.ChangeInvoiceStatus(ctx, *req)
	})
}

func (h *FleetHandler) GetInvoice(ctx context.Context, req *IDRequest) service.Result[*domain.Invoice] {
	return service.Run(ctx, "GetInvoice", func(ctx context.Context) (*domain.Invoice, error) {
		return h.billing.GetInvoice(ctx, req.ID)
	})
}

func (h *FleetHandler) ListAuditLogs(ctx context.Context, req *service.ListAuditLogsInput) service.Result[[]domain.AuditLog] {
	return service.Run(ctx, "ListAuditLogs", func(ctx context.Context) ([]domain.AuditLog, error) {
		return h.billing.ListAuditLogs(ctx, *req)
	})
}

// GetPermissionMatrix publishes the static role table so clients can hide
// actions up front. It needs no session.
func (h *FleetHandler) GetPermissionMatrix(ctx context.Context, _ *Empty) service.Result[*PermissionMatrix] {
	return service.Run(ctx, "GetPermissionMatrix", func(ctx context.Context) (*PermissionMatrix, error) {
		caps := make(map[domain.UserRole][]rbac.Capability, len(rbac.AllRoles))
		for _, role := range rbac.AllRoles {
			caps[role] = rbac.Capabilities(role)
		}
		return &PermissionMatrix{Grants: rbac.Matrix(), Capabilities: caps}, nil
	})
}
