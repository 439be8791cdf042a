package grpc

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"fleetrent-backend/internal/api/grpc/interceptor"
	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/rbac"
	"fleetrent-backend/internal/service"
)

const ServiceName = "fleetrent.v1.FleetService"

// IDRequest addresses a single record.
type IDRequest struct {
	ID uuid.UUID `json:"id"`
}

type PageRequest struct {
	Page     int32 `json:"page"`
	PageSize int32 `json:"page_size"`
}

type Empty struct{}

type PermissionMatrix struct {
	Grants       []rbac.Grant                          `json:"grants"`
	Capabilities map[domain.UserRole][]rbac.Capability `json:"capabilities"`
}

// FleetServiceServer is the server API for FleetService. Failures are reported
// inside the Result envelope, never as gRPC status errors.
type FleetServiceServer interface {
	CreateVehicle(context.Context, *service.CreateVehicleInput) service.Result[*domain.Vehicle]
	UpdateVehicle(context.Context, *service.UpdateVehicleInput) service.Result[*domain.Vehicle]
	GetVehicle(context.Context, *IDRequest) service.Result[*domain.Vehicle]
	ListVehicles(context.Context, *service.ListVehiclesInput) service.Result[*service.Page[domain.Vehicle]]
	DeleteVehicle(context.Context, *IDRequest) service.Result[Empty]
	ChangeVehicleStatus(context.Context, *service.ChangeVehicleStatusInput) service.Result[*domain.Vehicle]

	CreateClient(context.Context, *service.CreateClientInput) service.Result[*domain.Client]
	GetClient(context.Context, *IDRequest) service.Result[*domain.Client]
	ListClients(context.Context, *PageRequest) service.Result[*service.Page[domain.Client]]

	CreateContract(context.Context, *service.CreateContractInput) service.Result[*domain.RentalContract]
	ApproveContract(context.Context, *service.ApproveContractInput) service.Result[*domain.RentalContract]
	ActivateContract(context.Context, *IDRequest) service.Result[*domain.RentalContract]
	ValidateReturn(context.Context, *service.ValidateReturnInput) service.Result[*service.ReturnResult]
	CancelContract(context.Context, *service.CancelContractInput) service.Result[*domain.RentalContract]
	GetContract(context.Context, *IDRequest) service.Result[*domain.RentalContract]
	ListContracts(context.Context, *service.ListContractsInput) service.Result[*service.Page[domain.RentalContract]]

	RecordInspection(context.Context, *service.RecordInspectionInput) service.Result[*domain.Inspection]
	FinalizeInspection(context.Context, *IDRequest) service.Result[*domain.Inspection]
	ListInspections(context.Context, *IDRequest) service.Result[[]domain.Inspection]

	OpenMaintenance(context.Context, *service.OpenMaintenanceInput) service.Result[*domain.MaintenanceRecord]
	StartMaintenance(context.Context, *IDRequest) service.Result[*domain.MaintenanceRecord]
	CloseMaintenance(context.Context, *service.CloseMaintenanceInput) service.Result[*domain.MaintenanceRecord]
	ListMaintenance(context.Context, *IDRequest) service.Result[[]domain.MaintenanceRecord]

	RecordPayment(context.Context, *service.RecordPaymentInput) service.Result[*domain.Invoice]
	ChangeInvoiceStatus(context.Context, *service.ChangeInvoiceStatusInput) service.Result[*domain.Invoice]
	GetInvoice(context.Context, *IDRequest) service.Result[*domain.Invoice]
	ListAuditLogs(context.Context, *service.ListAuditLogsInput) service.Result[[]domain.AuditLog]

	GetPermissionMatrix(context.Context, *Empty) service.Result[*PermissionMatrix]
}

// unary builds the method descriptor for one FleetService call. call is
// usually a method expression such as FleetServiceServer.GetVehicle.
func unary[Req any, Resp any](name string, call func(FleetServiceServer, context.Context, *Req) Resp) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, status.Errorf(codes.InvalidArgument, "decode %s request: %v", name, err)
			}
			server := srv.(FleetServiceServer)
			if interceptor == nil {
				return call(server, ctx, in), nil
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(server, ctx, req.(*Req)), nil
			})
		},
	}
}

var FleetServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FleetServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateVehicle", FleetServiceServer.CreateVehicle),
		unary("UpdateVehicle", FleetServiceServer.UpdateVehicle),
		unary("GetVehicle", FleetServiceServer.GetVehicle),
		unary("ListVehicles", FleetServiceServer.ListVehicles),
		unary("DeleteVehicle", FleetServiceServer.DeleteVehicle),
		unary("ChangeVehicleStatus", FleetServiceServer.ChangeVehicleStatus),

		unary("CreateClient", FleetServiceServer.CreateClient),
		unary("GetClient", FleetServiceServer.GetClient),
		unary("ListClients", FleetServiceServer.ListClients),

		unary("CreateContract", FleetServiceServer.CreateContract),
		unary("ApproveContract", FleetServiceServer.ApproveContract),
		unary("ActivateContract", FleetServiceServer.ActivateContract),
		unary("ValidateReturn", FleetServiceServer.ValidateReturn),
		unary("CancelContract", FleetServiceServer.CancelContract),
		unary("GetContract", FleetServiceServer.GetContract),
		unary("ListContracts", FleetServiceServer.ListContracts),

		unary("RecordInspection", FleetServiceServer.RecordInspection),
		unary("FinalizeInspection", FleetServiceServer.FinalizeInspection),
		unary("ListInspections", FleetServiceServer.ListInspections),

		unary("OpenMaintenance", FleetServiceServer.OpenMaintenance),
		unary("StartMaintenance", FleetServiceServer.StartMaintenance),
		unary("CloseMaintenance", FleetServiceServer.CloseMaintenance),
		unary("ListMaintenance", FleetServiceServer.ListMaintenance),

		unary("RecordPayment", FleetServiceServer.RecordPayment),
		unary("ChangeInvoiceStatus", FleetServiceServer.ChangeInvoiceStatus),
		unary("GetInvoice", FleetServiceServer.GetInvoice),
		unary("ListAuditLogs", FleetServiceServer.ListAuditLogs),

		unary("GetPermissionMatrix", FleetServiceServer.GetPermissionMatrix),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fleetrent/v1/fleet.json",
}

func RegisterFleetServiceServer(s grpc.ServiceRegistrar, srv FleetServiceServer) {
	s.RegisterService(&FleetServiceDesc, srv)
}

// NewServer builds the gRPC server with the FleetService and the standard
// health service registered. The interceptor order is recovery, logging, auth.
func NewServer(handler FleetServiceServer, auth *interceptor.AuthInterceptor, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts = append(opts, grpc.ChainUnaryInterceptor(
		interceptor.Recovery(),
		interceptor.Logging(),
		auth.Unary(),
	))
	s := grpc.NewServer(opts...)
	RegisterFleetServiceServer(s, handler)

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, healthSrv)
	return s, healthSrv
}
