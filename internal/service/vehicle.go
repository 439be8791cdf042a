package service

import (
	"context"
	"time"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/logger"
	"fleetrent-backend/internal/rbac"
	"fleetrent-backend/internal/repository"
	"fleetrent-backend/internal/security"

	"github.com/google/uuid"
)

const (
	msgVehicleRented     = "vehicle is currently rented"
	msgVehicleChanged    = "vehicle status changed concurrently, please retry"
	msgVehicleNotAllowed = "vehicle status change is not allowed"
)

type vehicleService struct {
	store repository.Store
	guard *security.Guard
	now   func() time.Time
}

func NewVehicleService(store repository.Store, guard *security.Guard) VehicleService {
	return &vehicleService{store: store, guard: guard, now: time.Now}
}

func (s *vehicleService) CreateVehicle(ctx context.Context, in CreateVehicleInput) (*domain.Vehicle, error) {
	user, err := s.guard.RequirePermission(ctx, rbac.ResourceVehicles, rbac.ActionCreate)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	vehicle := &domain.Vehicle{
		TenantID:   user.TenantID,
		CategoryID: in.CategoryID,
		Plate:      in.Plate,
		Make:       in.Make,
		Model:      in.Model,
		Mileage:    in.Mileage,
		Status:     domain.VehicleStatusAvailable,
		DailyRate:  in.DailyRate,
	}
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Vehicles().Create(ctx, vehicle); err != nil {
			return storageError(err, "vehicle", "")
		}
		return writeAudit(ctx, tx, user, domain.AuditEntityVehicle, vehicle.ID, domain.AuditActionCreate,
			map[string]any{"plate": vehicle.Plate, "daily_rate": vehicle.DailyRate.String()}, nil)
	})
	if err != nil {
		return nil, storageError(err, "vehicle", "")
	}
	return vehicle, nil
}

func (s *vehicleService) UpdateVehicle(ctx context.Context, in UpdateVehicleInput) (*domain.Vehicle, error) {
	user, err := s.guard.RequirePermission(ctx, rbac.ResourceVehicles, rbac.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var vehicle *domain.Vehicle
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		current, err := tx.Vehicles().GetByID(ctx, user.TenantID, in.VehicleID)
		if err != nil {
			return storageError(err, "vehicle", "")
		}
		before := map[string]any{"plate": current.Plate, "daily_rate": current.DailyRate.String()}

		current.CategoryID = in.CategoryID
		current.Plate = in.Plate
		current.Make = in.Make
		current.Model = in.Model
		current.DailyRate = in.DailyRate
		if err := tx.Vehicles().Update(ctx, current); err != nil {
			return storageError(err, "vehicle", "")
		}
		vehicle = current
		return writeAudit(ctx, tx, user, domain.AuditEntityVehicle, current.ID, domain.AuditActionUpdate,
			map[string]any{"before": before, "after": map[string]any{"plate": current.Plate, "daily_rate": current.DailyRate.String()}}, nil)
	})
	if err != nil {
		return nil, storageError(err, "vehicle", "")
	}
	return vehicle, nil
}

func (s *vehicleService) GetVehicle(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	user, err := s.guard.RequirePermission(ctx, rbac.ResourceVehicles, rbac.ActionRead)
	if err != nil {
		return nil, err
	}
	if err := requireID("vehicle_id", id); err != nil {
		return nil, err
	}
	vehicle, err := s.store.Vehicles().GetByID(ctx, user.TenantID, id)
	if err != nil {
		return nil, storageError(err, "vehicle", "")
	}
	return vehicle, nil
}

func (s *vehicleService) ListVehicles(ctx context.Context, in ListVehiclesInput) (*Page[domain.Vehicle], error) {
	user, err := s.guard.RequirePermission(ctx, rbac.ResourceVehicles, rbac.ActionRead)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	vehicles, total, err := s.store.Vehicles().List(ctx, user.TenantID, in.Status, in.Page, in.PageSize)
	if err != nil {
		return nil, storageError(err, "vehicle", "")
	}
	return &Page[domain.Vehicle]{Items: vehicles, Total: total, Page: in.Page, PageSize: in.PageSize}, nil
}

func (s *vehicleService) DeleteVehicle(ctx context.Context, id uuid.UUID) error {
	user, err := s.guard.RequirePermission(ctx, rbac.ResourceVehicles, rbac.ActionDelete)
	if err != nil {
		return err
	}
	if err := requireID("vehicle_id", id); err != nil {
		return err
	}

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		vehicle, err := tx.Vehicles().GetByID(ctx, user.TenantID, id)
		if err != nil {
			return storageError(err, "vehicle", "")
		}
		if vehicle.Status == domain.VehicleStatusRented {
			return domain.NewConflictError(msgVehicleRented)
		}
		if err := tx.Vehicles().Delete(ctx, user.TenantID, id, vehicle.Status); err != nil {
			return storageError(err, "vehicle", msgVehicleChanged)
		}
		return writeAudit(ctx, tx, user, domain.AuditEntityVehicle, id, domain.AuditActionDelete,
			map[string]any{"plate": vehicle.Plate}, nil)
	})
	return storageError(err, "vehicle", msgVehicleChanged)
}

// ChangeVehicleStatus applies a direct status change. Rented vehicles are
// refused whatever the caller's role.
func (s *vehicleService) ChangeVehicleStatus(ctx context.Context, in ChangeVehicleStatusInput) (*domain.Vehicle, error) {
	user, err := s.guard.RequirePermission(ctx, rbac.ResourceVehicles, rbac.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var vehicle *domain.Vehicle
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		current, err := tx.Vehicles().GetByID(ctx, user.TenantID, in.VehicleID)
		if err != nil {
			return storageError(err, "vehicle", "")
		}
		from := current.Status
		if from == domain.VehicleStatusRented {
			return domain.NewConflictError(msgVehicleRented)
		}
		if !from.CanTransitionTo(in.NewStatus) {
			return domain.NewConflictError(msgVehicleNotAllowed + ": " + string(from) + " to " + string(in.NewStatus))
		}
		if err := tx.Vehicles().UpdateStatus(ctx, user.TenantID, current.ID, from, in.NewStatus); err != nil {
			return storageError(err, "vehicle", msgVehicleChanged)
		}
		current.Status = in.NewStatus

		if in.CreateMaintenanceRecord {
			record := &domain.MaintenanceRecord{
				TenantID:    user.TenantID,
				VehicleID:   current.ID,
				Type:        in.MaintenanceType,
				Description: in.MaintenanceDescription,
				Status:      domain.MaintenanceStatusOpen,
				StartDate:   s.now().UTC(),
				CreatedBy:   user.ID,
			}
			if err := tx.Maintenance().Create(ctx, record); err != nil {
				return storageError(err, "maintenance record", "")
			}
		}

		vehicle = current
		return writeAudit(ctx, tx, user, domain.AuditEntityVehicle, current.ID, domain.AuditActionStatusChange,
			domain.StatusChange(from, in.NewStatus), map[string]any{"reason": in.Reason})
	})
	if err != nil {
		return nil, storageError(err, "vehicle", msgVehicleChanged)
	}

	logger.InfoContext(ctx, "Vehicle status changed", "vehicle_id", vehicle.ID, "status", vehicle.Status)
	return vehicle, nil
}
