package service

import (
	"context"
	"errors"
	"time"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/logger"
	"fleetrent-backend/internal/rbac"
	"fleetrent-backend/internal/repository"
	"fleetrent-backend/internal/security"
	"fleetrent-backend/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApprovalPolicy decides the status a draft contract moves to on approval.
type ApprovalPolicy string

const (
	// ApprovalPolicyTermsAccepted approves when the client accepted the
	// general conditions and parks the contract in pending_cg otherwise.
	ApprovalPolicyTermsAccepted ApprovalPolicy = "terms_accepted"
	ApprovalPolicyAlwaysApprove ApprovalPolicy = "always_approve"
)

func (p ApprovalPolicy) NextStatus(termsAccepted bool) domain.ContractStatus {
	if p == ApprovalPolicyAlwaysApprove || termsAccepted {
		return domain.ContractStatusApproved
	}
	return domain.ContractStatusPendingCG
}

const (
	msgContractNotDraft     = "contract is not in draft state"
	msgContractNotActive    = "contract is not active"
	msgContractInvoiced     = "contract already closed and invoiced"
	msgContractClosed       = "contract is already closed"
	msgContractChanged      = "contract status changed concurrently, please retry"
	msgContractNotReady     = "contract must be approved before activation"
	msgDepartureNotFinal    = "departure inspection must be finalized before activation"
	msgVehicleNotAvailable  = "vehicle is not available"
	msgVehicleNotRented     = "vehicle is not marked as rented"
	msgInvoiceAlreadyExists = "an invoice already exists for this contract"
)

type contractService struct {
	store    repository.Store
	guard    *security.Guard
	notifier Notifier
	policy   ApprovalPolicy
	now      func() time.Time
}

func NewContractService(store repository.Store, guard *security.Guard, notifier Notifier, policy ApprovalPolicy) ContractService {
	if policy == "" {
		policy = ApprovalPolicyTermsAccepted
	}
	return &contractService{store: store, guard: guard, notifier: notifier, policy: policy, now: time.Now}
}

func (s *contractService) CreateContract(ctx context.Context, in CreateContractInput) (*domain.RentalContract, error) {
	user, err := s.guard.RequirePermission(ctx, rbac.ResourceContracts, rbac.ActionCreate)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	duration, ok := utils.ComputeRentalDays(in.StartDate, in.EndDate)
	if !ok {
		return nil, domain.NewValidationError("end_date", "end_date must be after start_date")
	}

	var contract *domain.RentalContract
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Clients().GetByID(ctx, user.TenantID, in.ClientID); err != nil {
			return storageError(err, "client", "")
		}
		vehicle, err := tx.Vehicles().GetByID(ctx, user.TenantID, in.VehicleID)
		if err != nil {
			return storageError(err, "vehicle", "")
		}
		if vehicle.Status != domain.VehicleStatusAvailable {
			return domain.NewConflictError(msgVehicleNotAvailable)
		}

		amount := utils.ComputeContractAmount(vehicle.DailyRate, duration.BilledDays, in.OptionsAmount, decimal.Zero, in.DiscountAmount)
		contract = &domain.RentalContract{
			TenantID:       user.TenantID,
			ClientID:       in.ClientID,
			VehicleID:      vehicle.ID,
			Status:         domain.ContractStatusDraft,
			StartDate:      in.StartDate.UTC(),
			EndDate:        in.EndDate.UTC(),
			DailyRate:      vehicle.DailyRate,
			OptionsAmount:  in.OptionsAmount,
			DiscountAmount: in.DiscountAmount,
			DepositAmount:  in.DepositAmount,
			TotalAmount:    amount.TotalAmount,
			DamagesAmount:  decimal.Zero,
			CreatedBy:      user.ID,
		}
		if err := tx.Contracts().Create(ctx, contract); err != nil {
			return storageError(err, "contract", "")
		}
		return writeAudit(ctx, tx, user, domain.AuditEntityContract, contract.ID, domain.AuditActionCreate,
			map[string]any{
				"status":       string(contract.Status),
				"billed_days":  duration.BilledDays,
				"total_amount": contract.TotalAmount.String(),
			}, nil)
	})
	if err != nil {
		return nil, storageError(err, "contract", "")
	}
	return contract, nil
}

func (s *contractService) ApproveContract(ctx context.Context, in ApproveContractInput) (*domain.RentalContract, error) {
	user, err := s.guard.RequireSpecialPermission(ctx, rbac.CapApproveContracts)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var (
		contract *domain.RentalContract
		client   *domain.Client
	)
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		current, err := tx.Contracts().GetByID(ctx, user.TenantID, in.ContractID)
		if err != nil {
			return storageError(err, "contract", "")
		}
		if current.Status != domain.ContractStatusDraft {
			return domain.NewConflictError(msgContractNotDraft)
		}

		next := s.policy.NextStatus(in.TermsAccepted)
		if err := tx.Contracts().Approve(ctx, user.TenantID, current.ID, next, in.TermsAccepted); err != nil {
			return storageError(err, "contract", msgContractNotDraft)
		}
		current.Status = next
		current.TermsAccepted = in.TermsAccepted

		if client, err = tx.Clients().GetByID(ctx, user.TenantID, current.ClientID); err != nil {
			return storageError(err, "client", "")
		}
		contract = current
		return writeAudit(ctx, tx, user, domain.AuditEntityContract, current.ID, domain.AuditActionApprove,
			domain.StatusChange(domain.ContractStatusDraft, next),
			map[string]any{"terms_accepted": in.TermsAccepted, "policy": string(s.policy)})
	})
	if err != nil {
		return nil, storageError(err, "contract", msgContractNotDraft)
	}

	if contract.Status == domain.ContractStatusApproved && client.Email != "" {
		if err := s.notifier.SendContractApproved(ctx, client, contract); err != nil {
			logger.WarnContext(ctx, "Failed to send contract approval email", "contract_id", contract.ID, "error", err)
		}
	}
	return contract, nil
}

func (s *contractService) ActivateContract(ctx context.Context, contractID uuid.UUID) (*domain.RentalContract, error) {
	user, err := s.guard.RequirePermission(ctx, rbac.ResourceContracts, rbac.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := requireID("contract_id", contractID); err != nil {
		return nil, err
	}

	var contract *domain.RentalContract
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		current, err := tx.Contracts().GetByID(ctx, user.TenantID, contractID)
		if err != nil {
			return storageError(err, "contract", "")
		}
		departure, err := tx.Inspections().GetByContractAndKind(ctx, user.TenantID, contractID, domain.InspectionKindDeparture)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NewConflictError(msgDepartureNotFinal)
		}
		if err != nil {
			return storageError(err, "inspection", "")
		}
		if departure.IsDraft {
			return domain.NewConflictError(msgDepartureNotFinal)
		}
		if err := activate(ctx, tx, user, current, departure); err != nil {
			return err
		}
		contract = current
		return nil
	})
	if err != nil {
		return nil, storageError(err, "contract", msgContractChanged)
	}
	return contract, nil
}

// activate moves an approved contract to active and its vehicle to rented.
// It runs inside the caller's transaction.
func activate(ctx context.Context, tx repository.Store, user *domain.CurrentUser, contract *domain.RentalContract, departure *domain.Inspection) error {
	from := contract.Status
	if from != domain.ContractStatusApproved && from != domain.ContractStatusPendingCG {
		return domain.NewConflictError(msgContractNotReady)
	}
	if err := tx.Contracts().UpdateStatus(ctx, user.TenantID, contract.ID, from, domain.ContractStatusActive); err != nil {
		return storageError(err, "contract", msgContractChanged)
	}
	if err := tx.Vehicles().UpdateStatus(ctx, user.TenantID, contract.VehicleID, domain.VehicleStatusAvailable, domain.VehicleStatusRented); err != nil {
		return storageError(err, "vehicle", msgVehicleNotAvailable)
	}
	if err := tx.Vehicles().UpdateMileage(ctx, user.TenantID, contract.VehicleID, departure.Mileage); err != nil {
		return storageError(err, "vehicle", "")
	}
	contract.Status = domain.ContractStatusActive

	return writeAudit(ctx, tx, user, domain.AuditEntityContract, contract.ID, domain.AuditActionActivate,
		domain.StatusChange(from, domain.ContractStatusActive),
		map[string]any{"inspection_id": departure.ID.String(), "mileage": departure.Mileage})
}

// ValidateReturn closes an active contract, issues its single invoice and
// releases the vehicle, all in one transaction.
func (s *contractService) ValidateReturn(ctx context.Context, in ValidateReturnInput) (*ReturnResult, error) {
	user, err := s.guard.RequirePermission(ctx, rbac.ResourceContracts, rbac.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var result *ReturnResult
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		contract, err := tx.Contracts().GetByID(ctx, user.TenantID, in.ContractID)
		if err != nil {
			return storageError(err, "contract", "")
		}
		if contract.Status != domain.ContractStatusActive {
			if contract.Status == domain.ContractStatusCompleted {
				if _, err := tx.Invoices().GetByContractID(ctx, user.TenantID, contract.ID); err == nil {
					return domain.NewConflictError(msgContractInvoiced)
				}
			}
			return domain.NewConflictError(msgContractNotActive)
		}

		inspection, err := tx.Inspections().GetByContractAndKind(ctx, user.TenantID, contract.ID, domain.InspectionKindReturn)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return storageError(err, "inspection", "")
		}
		if inspection != nil && inspection.IsDraft {
			inspection = nil
		}

		returnedAt := s.now().UTC()
		if in.ActualReturnDate != nil {
			returnedAt = in.ActualReturnDate.UTC()
		}
		duration, ok := utils.ComputeRentalDays(contract.StartDate, returnedAt)
		if !ok {
			return domain.NewValidationError("actual_return_date", "actual_return_date must be after the contract start")
		}

		damages := decimal.Zero
		switch {
		case in.DamagesAmount != nil:
			damages = *in.DamagesAmount
		case inspection != nil:
			damages = inspection.DamagesTotal()
		}
		if err := amountInRange("damages_amount", damages); err != nil {
			return err
		}
		mileage := in.ReturnMileage
		if mileage == nil && inspection != nil {
			mileage = &inspection.Mileage
		}

		if _, err := tx.Invoices().GetByContractID(ctx, user.TenantID, contract.ID); err == nil {
			return domain.NewConflictError(msgInvoiceAlreadyExists)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return storageError(err, "invoice", "")
		}

		breakdown := utils.ComputeContractAmount(contract.DailyRate, duration.BilledDays,
			contract.OptionsAmount, damages, contract.DiscountAmount)
		contract.ActualReturnDate = &returnedAt
		contract.ReturnMileage = mileage
		contract.DamagesAmount = damages
		contract.TotalAmount = breakdown.TotalAmount
		if err := tx.Contracts().Complete(ctx, contract); err != nil {
			return storageError(err, "contract", msgContractChanged)
		}
		contract.Status = domain.ContractStatusCompleted

		invoice := &domain.Invoice{
			ID:          uuid.New(),
			TenantID:    user.TenantID,
			ContractID:  contract.ID,
			Status:      domain.InvoiceStatusPending,
			TotalAmount: breakdown.TotalAmount,
			Balance:     breakdown.TotalAmount,
			IssuedAt:    returnedAt,
		}
		invoice.Number = utils.InvoiceNumber(invoice.IssuedAt, invoice.ID)
		if err := tx.Invoices().Create(ctx, invoice); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return domain.NewConflictError(msgInvoiceAlreadyExists)
			}
			return storageError(err, "invoice", "")
		}

		if err := tx.Vehicles().UpdateStatus(ctx, user.TenantID, contract.VehicleID, domain.VehicleStatusRented, domain.VehicleStatusAvailable); err != nil {
			return storageError(err, "vehicle", msgVehicleNotRented)
		}
		if mileage != nil {
			if err := tx.Vehicles().UpdateMileage(ctx, user.TenantID, contract.VehicleID, *mileage); err != nil {
				return storageError(err, "vehicle", "")
			}
		}

		if err := writeAudit(ctx, tx, user, domain.AuditEntityContract, contract.ID, domain.AuditActionClose,
			domain.StatusChange(domain.ContractStatusActive, domain.ContractStatusCompleted),
			map[string]any{
				"invoice_id":     invoice.ID.String(),
				"invoice_number": invoice.Number,
				"billed_days":    duration.BilledDays,
				"total_amount":   breakdown.TotalAmount.String(),
				"damages_amount": damages.String(),
			}); err != nil {
			return err
		}
		result = &ReturnResult{Contract: contract, Invoice: invoice, Breakdown: breakdown}
		return nil
	})
	if err != nil {
		return nil, storageError(err, "contract", msgContractChanged)
	}

	s.sendInvoiceEmail(ctx, user, result)
	return result, nil
}

func (s *contractService) sendInvoiceEmail(ctx context.Context, user *domain.CurrentUser, result *ReturnResult) {
	client, err := s.store.Clients().GetByID(ctx, user.TenantID, result.Contract.ClientID)
	if err != nil {
		logger.WarnContext(ctx, "Failed to load client for invoice email", "contract_id", result.Contract.ID, "error", err)
		return
	}
	if client.Email == "" {
		return
	}
	if err := s.notifier.SendInvoiceIssued(ctx, client, result.Invoice); err != nil {
		logger.WarnContext(ctx, "Failed to send invoice email", "invoice_id", result.Invoice.ID, "error", err)
	}
}

func (s *contractService) CancelContract(ctx context.Context, in CancelContractInput) (*domain.RentalContract, error) {
	user, err := s.guard.RequirePermission(ctx, rbac.ResourceContracts, rbac.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var contract *domain.RentalContract
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		current, err := tx.Contracts().GetByID(ctx, user.TenantID, in.ContractID)
		if err != nil {
			return storageError(err, "contract", "")
		}
		from := current.Status
		if from.IsTerminal() {
			return domain.NewConflictError(msgContractClosed)
		}
		if from == domain.ContractStatusActive && !rbac.HasSpecialPermission(user.Role, rbac.CapCloseAnyContract) {
			return domain.NewAuthorizationError()
		}

		if err := tx.Contracts().Cancel(ctx, user.TenantID, current.ID, from, in.Reason); err != nil {
			return storageError(err, "contract", msgContractChanged)
		}
		if from == domain.ContractStatusActive {
			if err := tx.Vehicles().UpdateStatus(ctx, user.TenantID, current.VehicleID, domain.VehicleStatusRented, domain.VehicleStatusAvailable); err != nil {
				return storageError(err, "vehicle", msgVehicleNotRented)
			}
		}
		current.Status = domain.ContractStatusCancelled
		current.CancelReason = in.Reason

		contract = current
		return writeAudit(ctx, tx, user, domain.AuditEntityContract, current.ID, domain.AuditActionCancel,
			domain.StatusChange(from, domain.ContractStatusCancelled), map[string]any{"reason": in.Reason})
	})
	if err != nil {
		return nil, storageError(err, "contract", msgContractChanged)
	}
	return contract, nil
}

func (s *contractService) GetContract(ctx context.Context, id uuid.UUID) (*domain.RentalContract, error) {
	user, err := s.guard.RequirePermission(ctx, rbac.ResourceContracts, rbac.ActionRead)
	if err != nil {
		return nil, err
	}
	if err := requireID("contract_id", id); err != nil {
		return nil, err
	}
	contract, err := s.store.Contracts().GetByID(ctx, user.TenantID, id)
	if err != nil {
		return nil, storageError(err, "contract", "")
	}
	return contract, nil
}

func (s *contractService) ListContracts(ctx context.Context, in ListContractsInput) (*Page[domain.RentalContract], error) {
	user, err := s.guard.RequirePermission(ctx, rbac.ResourceContracts, rbac.ActionRead)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	contracts, total, err := s.store.Contracts().List(ctx, user.TenantID, domain.ContractListFilter{
		Statuses:  in.Statuses,
		ClientID:  in.ClientID,
		VehicleID: in.VehicleID,
		Page:      in.Page,
		PageSize:  in.PageSize,
	})
	if err != nil {
		return nil, storageError(err, "contract", "")
	}
	return &Page[domain.RentalContract]{Items: contracts, Total: total, Page: in.Page, PageSize: in.PageSize}, nil
}
