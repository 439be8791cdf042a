package service

import (
	"context"
	"errors"
	"time"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/rbac"
	"fleetrent-backend/internal/repository"
	"fleetrent-backend/internal/security"

	"github.com/google/uuid"
)

const (
	msgInspectionExists    = "an inspection of this kind already exists for the contract"
	msgInspectionFinal     = "inspection is already finalized"
	msgDepartureNotAllowed = "departure inspection requires an approved contract"
	msgReturnNotAllowed    = "return inspection requires an active contract"
)

type inspectionService struct {
	store repository.Store
	guard *security.Guard
	now   func() time.Time
}

func NewInspectionService(store repository.Store, guard *security.Guard) InspectionService {
	return &inspectionService{store: store, guard: guard, now: time.Now}
}

func (s *inspectionService) RecordInspection(ctx context.Context, in RecordInspectionInput) (*domain.Inspection, error) {
	user, err := s.guard.RequirePermission(ctx, rbac.ResourceInspections, rbac.ActionCreate)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var inspection *domain.Inspection
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		contract, err := tx.Contracts().GetByID(ctx, user.TenantID, in.ContractID)
		if err != nil {
			return storageError(err, "contract", "")
		}
		switch in.Kind {
		case domain.InspectionKindDeparture:
			if contract.Status != domain.ContractStatusApproved && contract.Status != domain.ContractStatusPendingCG {
				return domain.NewConflictError(msgDepartureNotAllowed)
			}
		case domain.InspectionKindReturn:
			if contract.Status != domain.ContractStatusActive {
				return domain.NewConflictError(msgReturnNotAllowed)
			}
		}

		if _, err := tx.Inspections().GetByContractAndKind(ctx, user.TenantID, contract.ID, in.Kind); err == nil {
			return domain.NewConflictError(msgInspectionExists)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return storageError(err, "inspection", "")
		}

		inspection = &domain.Inspection{
			TenantID:   user.TenantID,
			ContractID: contract.ID,
			Kind:       in.Kind,
			IsDraft:    true,
			Mileage:    in.Mileage,
			FuelLevel:  in.FuelLevel,
			Damages:    in.Damages,
			Notes:      in.Notes,
			CreatedBy:  user.ID,
		}
		if err := tx.Inspections().Create(ctx, inspection); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return domain.NewConflictError(msgInspectionExists)
			}
			return storageError(err, "inspection", "")
		}
		return writeAudit(ctx, tx, user, domain.AuditEntityInspection, inspection.ID, domain.AuditActionCreate,
			map[string]any{
				"contract_id":   contract.ID.String(),
				"kind":          string(in.Kind),
				"damages_total": inspection.DamagesTotal().String(),
			}, nil)
	})
	if err != nil {
		return nil, storageError(err, "inspection", "")
	}
	return inspection, nil
}

// FinalizeInspection locks an inspection. Finalizing the departure inspection
// activates its contract in the same transaction, which also needs
// contracts:update.
func (s *inspectionService) FinalizeInspection(ctx context.Context, inspectionID uuid.UUID) (*domain.Inspection, error) {
	user, err := s.guard.RequirePermission(ctx, rbac.ResourceInspections, rbac.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := requireID("inspection_id", inspectionID); err != nil {
		return nil, err
	}

	var inspection *domain.Inspection
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		current, err := tx.Inspections().GetByID(ctx, user.TenantID, inspectionID)
		if err != nil {
			return storageError(err, "inspection", "")
		}
		if !current.IsDraft {
			return domain.NewConflictError(msgInspectionFinal)
		}

		var contract *domain.RentalContract
		if current.Kind == domain.InspectionKindDeparture {
			if !rbac.HasPermission(user.Role, rbac.ResourceContracts, rbac.ActionUpdate) {
				return domain.NewAuthorizationError()
			}
			if contract, err = tx.Contracts().GetByID(ctx, user.TenantID, current.ContractID); err != nil {
				return storageError(err, "contract", "")
			}
		}

		at := s.now().UTC()
		if err := tx.Inspections().Finalize(ctx, user.TenantID, current.ID, at); err != nil {
			return storageError(err, "inspection", msgInspectionFinal)
		}
		current.IsDraft = false
		current.FinalizedAt = &at

		if err := writeAudit(ctx, tx, user, domain.AuditEntityInspection, current.ID, domain.AuditActionFinalize,
			map[string]any{"kind": string(current.Kind)}, nil); err != nil {
			return err
		}
		if contract != nil {
			if err := activate(ctx, tx, user, contract, current); err != nil {
				return err
			}
		}
		inspection = current
		return nil
	})
	if err != nil {
		return nil, storageError(err, "inspection", msgInspectionFinal)
	}
	return inspection, nil
}

func (s *inspectionService) ListInspections(ctx context.Context, contractID uuid.UUID) ([]domain.Inspection, error) {
	user, err := s.guard.RequirePermission(ctx, rbac.ResourceInspections, rbac.ActionRead)
	if err != nil {
		return nil, err
	}
	if err := requireID("contract_id", contractID); err != nil {
		return nil, err
	}
	if _, err := s.store.Contracts().GetByID(ctx, user.TenantID, contractID); err != nil {
		return nil, storageError(err, "contract", "")
	}
	inspections, err := s.store.Inspections().ListByContract(ctx, user.TenantID, contractID)
	if err != nil {
		return nil, storageError(err, "inspection", "")
	}
	return inspections, nil
}
