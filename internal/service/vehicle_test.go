package service

import (
	"context"
	"testing"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/repository"
	"fleetrent-backend/internal/security"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var allVehicleStatuses = []domain.VehicleStatus{
	domain.VehicleStatusAvailable,
	domain.VehicleStatusRented,
	domain.VehicleStatusMaintenance,
	domain.VehicleStatusOutOfService,
}

func newVehicleService(store *MockStore, user *domain.CurrentUser) *vehicleService {
	return NewVehicleService(store, security.NewGuard(staticSession{user: user})).(*vehicleService)
}

func TestVehicleService_ChangeVehicleStatus_TransitionClosure(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	for _, from := range allVehicleStatuses {
		for _, to := range allVehicleStatuses {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				store := newMockStore()
				vehicle := &domain.Vehicle{ID: uuid.New(), TenantID: tenantID, Status: from}
				store.vehicles.On("GetByID", mock.Anything, tenantID, vehicle.ID).Return(vehicle, nil)

				allowed := from != domain.VehicleStatusRented && from.CanTransitionTo(to)
				if allowed {
					store.vehicles.On("UpdateStatus", mock.Anything, tenantID, vehicle.ID, from, to).Return(nil)
					store.audit.On("Create", mock.Anything, auditAction(domain.AuditEntityVehicle, domain.AuditActionStatusChange)).Return(nil)
				}

				svc := newVehicleService(store, newUser(domain.UserRoleAdmin, tenantID))
				got, err := svc.ChangeVehicleStatus(ctx, ChangeVehicleStatusInput{VehicleID: vehicle.ID, NewStatus: to})

				if allowed {
					require.NoError(t, err)
					assert.Equal(t, to, got.Status)
				} else {
					assert.Nil(t, got)
					assert.Equal(t, domain.ErrorKindStateConflict, domain.KindOf(err))
					store.vehicles.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				}
				store.AssertExpectations(t)
			})
		}
	}
}

func TestVehicleService_ChangeVehicleStatus(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("Rented vehicle refused for agent", func(t *testing.T) {
		store := newMockStore()
		vehicle := &domain.Vehicle{ID: uuid.New(), TenantID: tenantID, Status: domain.VehicleStatusRented}
		store.vehicles.On("GetByID", mock.Anything, tenantID, vehicle.ID).Return(vehicle, nil)

		svc := newVehicleService(store, newUser(domain.UserRoleAgent, tenantID))
		_, err := svc.ChangeVehicleStatus(ctx, ChangeVehicleStatusInput{
			VehicleID: vehicle.ID,
			NewStatus: domain.VehicleStatusMaintenance,
		})

		assert.Equal(t, domain.ErrorKindStateConflict, domain.KindOf(err))
		assert.Equal(t, "vehicle is currently rented", domain.PublicMessage(err))
		store.vehicles.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		store.audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Viewer cannot change status", func(t *testing.T) {
		store := newMockStore()
		svc := newVehicleService(store, newUser(domain.UserRoleViewer, tenantID))
		_, err := svc.ChangeVehicleStatus(ctx, ChangeVehicleStatusInput{
			VehicleID: uuid.New(),
			NewStatus: domain.VehicleStatusMaintenance,
		})

		assert.Equal(t, domain.ErrorKindAuthorization, domain.KindOf(err))
		assert.Equal(t, 0, store.txCount)
	})

	t.Run("Other tenant vehicle is not found", func(t *testing.T) {
		store := newMockStore()
		foreignID := uuid.New()
		store.vehicles.On("GetByID", mock.Anything, tenantID, foreignID).Return(nil, repository.ErrNotFound)

		svc := newVehicleService(store, newUser(domain.UserRoleAdmin, tenantID))
		_, err := svc.ChangeVehicleStatus(ctx, ChangeVehicleStatusInput{
			VehicleID: foreignID,
			NewStatus: domain.VehicleStatusMaintenance,
		})

		assert.Equal(t, domain.ErrorKindNotFound, domain.KindOf(err))
		assert.Equal(t, "vehicle not found", domain.PublicMessage(err))
	})

	t.Run("Lost race is a conflict", func(t *testing.T) {
		store := newMockStore()
		vehicle := &domain.Vehicle{ID: uuid.New(), TenantID: tenantID, Status: domain.VehicleStatusAvailable}
		store.vehicles.On("GetByID", mock.Anything, tenantID, vehicle.ID).Return(vehicle, nil)
		store.vehicles.On("UpdateStatus", mock.Anything, tenantID, vehicle.ID, domain.VehicleStatusAvailable, domain.VehicleStatusMaintenance).
			Return(repository.ErrStatusConflict)

		svc := newVehicleService(store, newUser(domain.UserRoleAgent, tenantID))
		_, err := svc.ChangeVehicleStatus(ctx, ChangeVehicleStatusInput{
			VehicleID: vehicle.ID,
			NewStatus: domain.VehicleStatusMaintenance,
		})

		assert.Equal(t, domain.ErrorKindStateConflict, domain.KindOf(err))
		store.audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Opens maintenance record", func(t *testing.T) {
		store := newMockStore()
		vehicle := &domain.Vehicle{ID: uuid.New(), TenantID: tenantID, Status: domain.VehicleStatusAvailable}
		store.vehicles.On("GetByID", mock.Anything, tenantID, vehicle.ID).Return(vehicle, nil)
		store.vehicles.On("UpdateStatus", mock.Anything, tenantID, vehicle.ID, domain.VehicleStatusAvailable, domain.VehicleStatusMaintenance).Return(nil)
		store.maintenance.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.MaintenanceRecord) bool {
			return r.VehicleID == vehicle.ID && r.TenantID == tenantID &&
				r.Type == domain.MaintenanceTypeCorrective && r.Status == domain.MaintenanceStatusOpen
		})).Return(nil)
		store.audit.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.AuditLog) bool {
			return e.Action == domain.AuditActionStatusChange &&
				e.Changes["from"] == "available" && e.Changes["to"] == "maintenance" &&
				e.Metadata["reason"] == "brake noise"
		})).Return(nil)

		svc := newVehicleService(store, newUser(domain.UserRoleAgent, tenantID))
		got, err := svc.ChangeVehicleStatus(ctx, ChangeVehicleStatusInput{
			VehicleID:               vehicle.ID,
			NewStatus:               domain.VehicleStatusMaintenance,
			Reason:                  "brake noise",
			CreateMaintenanceRecord: true,
			MaintenanceDescription:  "Replace front pads",
		})

		require.NoError(t, err)
		assert.Equal(t, domain.VehicleStatusMaintenance, got.Status)
		store.AssertExpectations(t)
	})

	t.Run("Maintenance record requires maintenance target", func(t *testing.T) {
		store := newMockStore()
		svc := newVehicleService(store, newUser(domain.UserRoleAdmin, tenantID))
		_, err := svc.ChangeVehicleStatus(ctx, ChangeVehicleStatusInput{
			VehicleID:               uuid.New(),
			NewStatus:               domain.VehicleStatusOutOfService,
			CreateMaintenanceRecord: true,
			MaintenanceDescription:  "x",
		})

		assert.Equal(t, domain.ErrorKindValidation, domain.KindOf(err))
		assert.Equal(t, 0, store.txCount)
	})
}

func TestVehicleService_DeleteVehicle(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("Agent cannot delete", func(t *testing.T) {
		svc := newVehicleService(newMockStore(), newUser(domain.UserRoleAgent, tenantID))
		err := svc.DeleteVehicle(ctx, uuid.New())
		assert.Equal(t, domain.ErrorKindAuthorization, domain.KindOf(err))
	})

	t.Run("Rented vehicle is refused", func(t *testing.T) {
		store := newMockStore()
		vehicle := &domain.Vehicle{ID: uuid.New(), TenantID: tenantID, Status: domain.VehicleStatusRented}
		store.vehicles.On("GetByID", mock.Anything, tenantID, vehicle.ID).Return(vehicle, nil)

		err := newVehicleService(store, newUser(domain.UserRoleAdmin, tenantID)).DeleteVehicle(ctx, vehicle.ID)
		assert.Equal(t, domain.ErrorKindStateConflict, domain.KindOf(err))
	})

	t.Run("Referenced vehicle is a conflict", func(t *testing.T) {
		store := newMockStore()
		vehicle := &domain.Vehicle{ID: uuid.New(), TenantID: tenantID, Status: domain.VehicleStatusAvailable}
		store.vehicles.On("GetByID", mock.Anything, tenantID, vehicle.ID).Return(vehicle, nil)
		store.vehicles.On("Delete", mock.Anything, tenantID, vehicle.ID, domain.VehicleStatusAvailable).Return(repository.ErrInUse)

		err := newVehicleService(store, newUser(domain.UserRoleAdmin, tenantID)).DeleteVehicle(ctx, vehicle.ID)
		assert.Equal(t, domain.ErrorKindStateConflict, domain.KindOf(err))
	})
}

func TestVehicleService_CreateVehicle(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		store := newMockStore()
		store.vehicles.On("Create", mock.Anything, mock.MatchedBy(func(v *domain.Vehicle) bool {
			return v.TenantID == tenantID && v.Status == domain.VehicleStatusAvailable
		})).Return(nil)
		store.audit.On("Create", mock.Anything, auditAction(domain.AuditEntityVehicle, domain.AuditActionCreate)).Return(nil)

		got, err := newVehicleService(store, newUser(domain.UserRoleAgent, tenantID)).CreateVehicle(ctx, CreateVehicleInput{
			Plate:     "AB-123-CD",
			Make:      "Renault",
			Model:     "Clio",
			Mileage:   12000,
			DailyRate: decimal.NewFromInt(45),
		})
		require.NoError(t, err)
		assert.Equal(t, tenantID, got.TenantID)
		store.AssertExpectations(t)
	})

	t.Run("Duplicate plate", func(t *testing.T) {
		store := newMockStore()
		store.vehicles.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)

		_, err := newVehicleService(store, newUser(domain.UserRoleAgent, tenantID)).CreateVehicle(ctx, CreateVehicleInput{
			Plate: "AB-123-CD", Make: "Renault", Model: "Clio", DailyRate: decimal.NewFromInt(45),
		})
		assert.Equal(t, domain.ErrorKindStateConflict, domain.KindOf(err))
	})

	t.Run("Non-positive rate", func(t *testing.T) {
		_, err := newVehicleService(newMockStore(), newUser(domain.UserRoleAgent, tenantID)).CreateVehicle(ctx, CreateVehicleInput{
			Plate: "AB-123-CD", Make: "Renault", Model: "Clio",
		})
		require.Error(t, err)
		var de *domain.Error
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "daily_rate", de.Field)
	})
}
