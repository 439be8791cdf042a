package service

import (
	"context"
	"time"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/rbac"
	"fleetrent-backend/internal/repository"
	"fleetrent-backend/internal/security"

	"github.com/google/uuid"
)

const (
	msgMaintenanceCompleted = "maintenance record is already completed"
	msgMaintenanceChanged   = "maintenance record changed concurrently, please retry"
)

type maintenanceService struct {
	store repository.Store
	guard *security.Guard
	now   func() time.Time
}

func NewMaintenanceService(store repository.Store, guard *security.Guard) MaintenanceService {
	return &maintenanceService{store: store, guard: guard, now: time.Now}
}

// OpenMaintenance records a maintenance intervention and moves the vehicle to
// maintenance unless it is already there.
func (s *maintenanceService) OpenMaintenance(ctx context.Context, in OpenMaintenanceInput) (*domain.MaintenanceRecord, error) {
	user, err := s.guard.RequirePermission(ctx, rbac.ResourceMaintenance, rbac.ActionCreate)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var record *domain.MaintenanceRecord
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		vehicle, err := tx.Vehicles().GetByID(ctx, user.TenantID, in.VehicleID)
		if err != nil {
			return storageError(err, "vehicle", "")
		}
		from := vehicle.Status
		switch {
		case from == domain.VehicleStatusRented:
			return domain.NewConflictError(msgVehicleRented)
		case from == domain.VehicleStatusMaintenance:
		case !from.CanTransitionTo(domain.VehicleStatusMaintenance):
			return domain.NewConflictError(msgVehicleNotAllowed + ": " + string(from) + " to maintenance")
		default:
			if err := tx.Vehicles().UpdateStatus(ctx, user.TenantID, vehicle.ID, from, domain.VehicleStatusMaintenance); err != nil {
				return storageError(err, "vehicle", msgVehicleChanged)
			}
		}

		start := s.now().UTC()
		if in.StartDate != nil {
			start = in.StartDate.UTC()
		}
		record = &domain.MaintenanceRecord{
			TenantID:      user.TenantID,
			VehicleID:     vehicle.ID,
			Type:          in.Type,
			Description:   in.Description,
			Status:        domain.MaintenanceStatusOpen,
			StartDate:     start,
			EstimatedCost: in.EstimatedCost,
			CreatedBy:     user.ID,
		}
		if err := tx.Maintenance().Create(ctx, record); err != nil {
			return storageError(err, "maintenance record", "")
		}
		return writeAudit(ctx, tx, user, domain.AuditEntityMaintenance, record.ID, domain.AuditActionCreate,
			map[string]any{
				"vehicle_id":     vehicle.ID.String(),
				"type":           string(record.Type),
				"vehicle_status": domain.StatusChange(from, domain.VehicleStatusMaintenance),
			}, nil)
	})
	if err != nil {
		return nil, storageError(err, "maintenance record", msgMaintenanceChanged)
	}
	return record, nil
}

func (s *maintenanceService) StartMaintenance(ctx context.Context, recordID uuid.UUID) (*domain.MaintenanceRecord, error) {
	user, err := s.guard.RequirePermission(ctx, rbac.ResourceMaintenance, rbac.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := requireID("record_id", recordID); err != nil {
		return nil, err
	}

	var record *domain.MaintenanceRecord
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		current, err := tx.Maintenance().GetByID(ctx, user.TenantID, recordID)
		if err != nil {
			return storageError(err, "maintenance record", "")
		}
		from := current.Status
		if !from.CanTransitionTo(domain.MaintenanceStatusInProgress) {
			return domain.NewConflictError("maintenance record cannot be started from status " + string(from))
		}
		if err := tx.Maintenance().UpdateStatus(ctx, user.TenantID, current.ID, from, domain.MaintenanceStatusInProgress); err != nil {
			return storageError(err, "maintenance record", msgMaintenanceChanged)
		}
		current.Status = domain.MaintenanceStatusInProgress
		record = current
		return writeAudit(ctx, tx, user, domain.AuditEntityMaintenance, current.ID, domain.AuditActionStatusChange,
			domain.StatusChange(from, domain.MaintenanceStatusInProgress), nil)
	})
	if err != nil {
		return nil, storageError(err, "maintenance record", msgMaintenanceChanged)
	}
	return record, nil
}

// CloseMaintenance completes a record. With ReleaseVehicle set, the vehicle
// returns to available once no other unfinished record remains for it.
func (s *maintenanceService) CloseMaintenance(ctx context.Context, in CloseMaintenanceInput) (*domain.MaintenanceRecord, error) {
	user, err := s.guard.RequirePermission(ctx, rbac.ResourceMaintenance, rbac.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var record *domain.MaintenanceRecord
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		current, err := tx.Maintenance().GetByID(ctx, user.TenantID, in.RecordID)
		if err != nil {
			return storageError(err, "maintenance record", "")
		}
		from := current.Status
		if !from.CanTransitionTo(domain.MaintenanceStatusCompleted) {
			return domain.NewConflictError(msgMaintenanceCompleted)
		}

		end := s.now().UTC()
		if in.EndDate != nil {
			end = in.EndDate.UTC()
		}
		if end.Before(current.StartDate) {
			return domain.NewValidationError("end_date", "end_date must not be before the start date")
		}
		current.EndDate = &end
		current.FinalCost = in.FinalCost
		if err := tx.Maintenance().Complete(ctx, current, from); err != nil {
			return storageError(err, "maintenance record", msgMaintenanceChanged)
		}
		current.Status = domain.MaintenanceStatusCompleted

		released := false
		if in.ReleaseVehicle {
			if released, err = releaseVehicle(ctx, tx, user, current); err != nil {
				return err
			}
		}

		record = current
		return writeAudit(ctx, tx, user, domain.AuditEntityMaintenance, current.ID, domain.AuditActionClose,
			domain.StatusChange(from, domain.MaintenanceStatusCompleted),
			map[string]any{"vehicle_released": released})
	})
	if err != nil {
		return nil, storageError(err, "maintenance record", msgMaintenanceChanged)
	}
	return record, nil
}

func releaseVehicle(ctx context.Context, tx repository.Store, user *domain.CurrentUser, record *domain.MaintenanceRecord) (bool, error) {
	others, err := tx.Maintenance().CountUnfinished(ctx, user.TenantID, record.VehicleID, record.ID)
	if err != nil {
		return false, storageError(err, "maintenance record", "")
	}
	if others > 0 {
		return false, nil
	}
	vehicle, err := tx.Vehicles().GetByID(ctx, user.TenantID, record.VehicleID)
	if err != nil {
		return false, storageError(err, "vehicle", "")
	}
	if vehicle.Status != domain.VehicleStatusMaintenance {
		return false, nil
	}
	if err := tx.Vehicles().UpdateStatus(ctx, user.TenantID, vehicle.ID, domain.VehicleStatusMaintenance, domain.VehicleStatusAvailable); err != nil {
		return false, storageError(err, "vehicle", msgVehicleChanged)
	}
	return true, writeAudit(ctx, tx, user, domain.AuditEntityVehicle, vehicle.ID, domain.AuditActionStatusChange,
		domain.StatusChange(domain.VehicleStatusMaintenance, domain.VehicleStatusAvailable),
		map[string]any{"maintenance_id": record.ID.String()})
}

func (s *maintenanceService) ListMaintenance(ctx context.Context, vehicleID uuid.UUID) ([]domain.MaintenanceRecord, error) {
	user, err := s.guard.RequirePermission(ctx, rbac.ResourceMaintenance, rbac.ActionRead)
	if err != nil {
		return nil, err
	}
	if err := requireID("vehicle_id", vehicleID); err != nil {
		return nil, err
	}
	records, err := s.store.Maintenance().ListByVehicle(ctx, user.TenantID, vehicleID)
	if err != nil {
		return nil, storageError(err, "maintenance record", "")
	}
	return records, nil
}
