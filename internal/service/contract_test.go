package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/repository"
	"fleetrent-backend/internal/security"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newContractService(store *MockStore, notifier Notifier, user *domain.CurrentUser, policy ApprovalPolicy) *contractService {
	return NewContractService(store, security.NewGuard(staticSession{user: user}), notifier, policy).(*contractService)
}

func TestApprovalPolicy_NextStatus(t *testing.T) {
	assert.Equal(t, domain.ContractStatusApproved, ApprovalPolicyTermsAccepted.NextStatus(true))
	assert.Equal(t, domain.ContractStatusPendingCG, ApprovalPolicyTermsAccepted.NextStatus(false))
	assert.Equal(t, domain.ContractStatusApproved, ApprovalPolicyAlwaysApprove.NextStatus(false))
}

func TestContractService_CreateContract(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	clientID, vehicleID := uuid.New(), uuid.New()
	start := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	input := CreateContractInput{
		ClientID:       clientID,
		VehicleID:      vehicleID,
		StartDate:      start,
		EndDate:        start.Add(72 * time.Hour),
		OptionsAmount:  decimal.NewFromInt(20),
		DiscountAmount: decimal.NewFromInt(10),
	}

	t.Run("Snapshots rate and computes total", func(t *testing.T) {
		store := newMockStore()
		store.clients.On("GetByID", mock.Anything, tenantID, clientID).Return(&domain.Client{ID: clientID}, nil)
		store.vehicles.On("GetByID", mock.Anything, tenantID, vehicleID).Return(&domain.Vehicle{
			ID: vehicleID, TenantID: tenantID, Status: domain.VehicleStatusAvailable, DailyRate: decimal.NewFromInt(50),
		}, nil)
		store.contracts.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.RentalContract) bool {
			return c.Status == domain.ContractStatusDraft && c.TenantID == tenantID &&
				c.DailyRate.Equal(decimal.NewFromInt(50)) && c.TotalAmount.Equal(decimal.NewFromInt(160))
		})).Return(nil)
		store.audit.On("Create", mock.Anything, auditAction(domain.AuditEntityContract, domain.AuditActionCreate)).Return(nil)

		got, err := newContractService(store, nil, newUser(domain.UserRoleAgent, tenantID), "").CreateContract(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, domain.ContractStatusDraft, got.Status)
		store.AssertExpectations(t)
	})

	t.Run("Vehicle not available", func(t *testing.T) {
		store := newMockStore()
		store.clients.On("GetByID", mock.Anything, tenantID, clientID).Return(&domain.Client{ID: clientID}, nil)
		store.vehicles.On("GetByID", mock.Anything, tenantID, vehicleID).Return(&domain.Vehicle{
			ID: vehicleID, Status: domain.VehicleStatusRented, DailyRate: decimal.NewFromInt(50),
		}, nil)

		_, err := newContractService(store, nil, newUser(domain.UserRoleAgent, tenantID), "").CreateContract(ctx, input)
		assert.Equal(t, domain.ErrorKindStateConflict, domain.KindOf(err))
		assert.Equal(t, "vehicle is not available", domain.PublicMessage(err))
		store.contracts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("End before start", func(t *testing.T) {
		bad := input
		bad.EndDate = start
		_, err := newContractService(newMockStore(), nil, newUser(domain.UserRoleAgent, tenantID), "").CreateContract(ctx, bad)
		assert.Equal(t, domain.ErrorKindValidation, domain.KindOf(err))
	})

	t.Run("Viewer cannot create", func(t *testing.T) {
		_, err := newContractService(newMockStore(), nil, newUser(domain.UserRoleViewer, tenantID), "").CreateContract(ctx, input)
		assert.Equal(t, domain.ErrorKindAuthorization, domain.KindOf(err))
	})
}

func TestContractService_ApproveContract(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	setup := func(status domain.ContractStatus) (*MockStore, *domain.RentalContract, *domain.Client) {
		store := newMockStore()
		client := &domain.Client{ID: uuid.New(), TenantID: tenantID, FullName: "Ada", Email: "ada@example.com"}
		contract := &domain.RentalContract{ID: uuid.New(), TenantID: tenantID, ClientID: client.ID, Status: status}
		store.contracts.On("GetByID", mock.Anything, tenantID, contract.ID).Return(contract, nil)
		store.clients.On("GetByID", mock.Anything, tenantID, client.ID).Return(client, nil)
		return store, contract, client
	}

	t.Run("Terms not accepted goes to pending_cg", func(t *testing.T) {
		store, contract, _ := setup(domain.ContractStatusDraft)
		store.contracts.On("Approve", mock.Anything, tenantID, contract.ID, domain.ContractStatusPendingCG, false).Return(nil)
		store.audit.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.AuditLog) bool {
			return e.Action == domain.AuditActionApprove && e.Changes["to"] == "pending_cg"
		})).Return(nil)
		notifier := new(MockNotifier)

		svc := newContractService(store, notifier, newUser(domain.UserRoleAgent, tenantID), ApprovalPolicyTermsAccepted)
		got, err := svc.ApproveContract(ctx, ApproveContractInput{ContractID: contract.ID, TermsAccepted: false})

		require.NoError(t, err)
		assert.Equal(t, domain.ContractStatusPendingCG, got.Status)
		notifier.AssertNotCalled(t, "SendContractApproved", mock.Anything, mock.Anything, mock.Anything)
		store.AssertExpectations(t)
	})

	t.Run("Always approve policy emails the client", func(t *testing.T) {
		store, contract, client := setup(domain.ContractStatusDraft)
		store.contracts.On("Approve", mock.Anything, tenantID, contract.ID, domain.ContractStatusApproved, false).Return(nil)
		store.audit.On("Create", mock.Anything, auditAction(domain.AuditEntityContract, domain.AuditActionApprove)).Return(nil)
		notifier := new(MockNotifier)
		notifier.On("SendContractApproved", mock.Anything, client, contract).Return(errors.New("sendgrid down"))

		svc := newContractService(store, notifier, newUser(domain.UserRoleAdmin, tenantID), ApprovalPolicyAlwaysApprove)
		got, err := svc.ApproveContract(ctx, ApproveContractInput{ContractID: contract.ID})

		require.NoError(t, err)
		assert.Equal(t, domain.ContractStatusApproved, got.Status)
		notifier.AssertExpectations(t)
	})

	t.Run("Not a draft", func(t *testing.T) {
		store, contract, _ := setup(domain.ContractStatusActive)
		svc := newContractService(store, nil, newUser(domain.UserRoleAdmin, tenantID), "")
		_, err := svc.ApproveContract(ctx, ApproveContractInput{ContractID: contract.ID, TermsAccepted: true})

		assert.Equal(t, domain.ErrorKindStateConflict, domain.KindOf(err))
		assert.Equal(t, "contract is not in draft state", domain.PublicMessage(err))
	})

	t.Run("Viewer lacks the capability", func(t *testing.T) {
		svc := newContractService(newMockStore(), nil, newUser(domain.UserRoleViewer, tenantID), "")
		_, err := svc.ApproveContract(ctx, ApproveContractInput{ContractID: uuid.New(), TermsAccepted: true})
		assert.Equal(t, domain.ErrorKindAuthorization, domain.KindOf(err))
	})
}

func TestContractService_ActivateContract(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	setup := func(departure *domain.Inspection, departureErr error) (*MockStore, *domain.RentalContract) {
		store := newMockStore()
		contract := &domain.RentalContract{ID: uuid.New(), TenantID: tenantID, VehicleID: uuid.New(), Status: domain.ContractStatusPendingCG}
		store.contracts.On("GetByID", mock.Anything, tenantID, contract.ID).Return(contract, nil)
		store.inspections.On("GetByContractAndKind", mock.Anything, tenantID, contract.ID, domain.InspectionKindDeparture).
			Return(departure, departureErr)
		return store, contract
	}

	t.Run("Success", func(t *testing.T) {
		store, contract := setup(&domain.Inspection{ID: uuid.New(), Mileage: 12000}, nil)
		store.contracts.On("UpdateStatus", mock.Anything, tenantID, contract.ID, domain.ContractStatusPendingCG, domain.ContractStatusActive).Return(nil)
		store.vehicles.On("UpdateStatus", mock.Anything, tenantID, contract.VehicleID, domain.VehicleStatusAvailable, domain.VehicleStatusRented).Return(nil)
		store.vehicles.On("UpdateMileage", mock.Anything, tenantID, contract.VehicleID, 12000).Return(nil)
		store.audit.On("Create", mock.Anything, auditAction(domain.AuditEntityContract, domain.AuditActionActivate)).Return(nil)

		got, err := newContractService(store, nil, newUser(domain.UserRoleAgent, tenantID), "").ActivateContract(ctx, contract.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ContractStatusActive, got.Status)
		store.AssertExpectations(t)
	})

	t.Run("Vehicle taken by another contract", func(t *testing.T) {
		store, contract := setup(&domain.Inspection{ID: uuid.New(), Mileage: 12000}, nil)
		store.contracts.On("UpdateStatus", mock.Anything, tenantID, contract.ID, domain.ContractStatusPendingCG, domain.ContractStatusActive).Return(nil)
		store.vehicles.On("UpdateStatus", mock.Anything, tenantID, contract.VehicleID, domain.VehicleStatusAvailable, domain.VehicleStatusRented).
			Return(repository.ErrStatusConflict)

		_, err := newContractService(store, nil, newUser(domain.UserRoleAgent, tenantID), "").ActivateContract(ctx, contract.ID)
		assert.Equal(t, domain.ErrorKindStateConflict, domain.KindOf(err))
		assert.Equal(t, "vehicle is not available", domain.PublicMessage(err))
	})

	t.Run("Departure inspection still a draft", func(t *testing.T) {
		store, contract := setup(&domain.Inspection{ID: uuid.New(), IsDraft: true}, nil)
		_, err := newContractService(store, nil, newUser(domain.UserRoleAgent, tenantID), "").ActivateContract(ctx, contract.ID)
		assert.Equal(t, domain.ErrorKindStateConflict, domain.KindOf(err))
	})

	t.Run("No departure inspection", func(t *testing.T) {
		store, contract := setup(nil, repository.ErrNotFound)
		_, err := newContractService(store, nil, newUser(domain.UserRoleAgent, tenantID), "").ActivateContract(ctx, contract.ID)
		assert.Equal(t, domain.ErrorKindStateConflict, domain.KindOf(err))
	})
}

func TestContractService_ValidateReturn(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	start := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	returnedAt := time.Date(2024, 7, 4, 9, 30, 0, 0, time.UTC)

	activeContract := func() *domain.RentalContract {
		return &domain.RentalContract{
			ID:             uuid.New(),
			TenantID:       tenantID,
			ClientID:       uuid.New(),
			VehicleID:      uuid.New(),
			Status:         domain.ContractStatusActive,
			StartDate:      start,
			EndDate:        start.Add(72 * time.Hour),
			DailyRate:      decimal.NewFromInt(50),
			OptionsAmount:  decimal.NewFromInt(20),
			DiscountAmount: decimal.NewFromInt(10),
		}
	}

	t.Run("Closes contract and issues invoice", func(t *testing.T) {
		store := newMockStore()
		contract := activeContract()
		client := &domain.Client{ID: contract.ClientID, Email: "ada@example.com"}
		store.contracts.On("GetByID", mock.Anything, tenantID, contract.ID).Return(contract, nil)
		store.inspections.On("GetByContractAndKind", mock.Anything, tenantID, contract.ID, domain.InspectionKindReturn).
			Return(&domain.Inspection{Mileage: 15500, Damages: []domain.Damage{{Location: "bumper", Cost: decimal.NewFromInt(150)}}}, nil)
		store.invoices.On("GetByContractID", mock.Anything, tenantID, contract.ID).Return(nil, repository.ErrNotFound)
		// 73 started hours -> 4 billed days: 4*50 + 20 + 150 - 10
		store.contracts.On("Complete", mock.Anything, mock.MatchedBy(func(c *domain.RentalContract) bool {
			return c.TotalAmount.Equal(decimal.NewFromInt(360)) && c.DamagesAmount.Equal(decimal.NewFromInt(150)) &&
				*c.ReturnMileage == 15500 && c.ActualReturnDate.Equal(returnedAt)
		})).Return(nil)
		store.invoices.On("Create", mock.Anything, mock.MatchedBy(func(inv *domain.Invoice) bool {
			return inv.Status == domain.InvoiceStatusPending && inv.Balance.Equal(decimal.NewFromInt(360)) &&
				strings.HasPrefix(inv.Number, "INV-20240704-")
		})).Return(nil)
		store.vehicles.On("UpdateStatus", mock.Anything, tenantID, contract.VehicleID, domain.VehicleStatusRented, domain.VehicleStatusAvailable).Return(nil)
		store.vehicles.On("UpdateMileage", mock.Anything, tenantID, contract.VehicleID, 15500).Return(nil)
		store.audit.On("Create", mock.Anything, auditAction(domain.AuditEntityContract, domain.AuditActionClose)).Return(nil)
		store.clients.On("GetByID", mock.Anything, tenantID, contract.ClientID).Return(client, nil)
		notifier := new(MockNotifier)
		notifier.On("SendInvoiceIssued", mock.Anything, client, mock.Anything).Return(errors.New("sendgrid down"))

		svc := newContractService(store, notifier, newUser(domain.UserRoleAgent, tenantID), "")
		svc.now = func() time.Time { return returnedAt }
		got, err := svc.ValidateReturn(ctx, ValidateReturnInput{ContractID: contract.ID})

		require.NoError(t, err)
		assert.Equal(t, domain.ContractStatusCompleted, got.Contract.Status)
		assert.Equal(t, int64(4), got.Breakdown.BilledDays)
		assert.True(t, got.Invoice.TotalAmount.Equal(decimal.NewFromInt(360)))
		store.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("Second close is refused", func(t *testing.T) {
		store := newMockStore()
		contract := activeContract()
		contract.Status = domain.ContractStatusCompleted
		store.contracts.On("GetByID", mock.Anything, tenantID, contract.ID).Return(contract, nil)
		store.invoices.On("GetByContractID", mock.Anything, tenantID, contract.ID).Return(&domain.Invoice{ID: uuid.New()}, nil)

		_, err := newContractService(store, nil, newUser(domain.UserRoleAgent, tenantID), "").
			ValidateReturn(ctx, ValidateReturnInput{ContractID: contract.ID})

		assert.Equal(t, domain.ErrorKindStateConflict, domain.KindOf(err))
		assert.Equal(t, "contract already closed and invoiced", domain.PublicMessage(err))
		store.invoices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Concurrent invoice insert is a conflict", func(t *testing.T) {
		store := newMockStore()
		contract := activeContract()
		damages := decimal.Zero
		store.contracts.On("GetByID", mock.Anything, tenantID, contract.ID).Return(contract, nil)
		store.inspections.On("GetByContractAndKind", mock.Anything, tenantID, contract.ID, domain.InspectionKindReturn).Return(nil, repository.ErrNotFound)
		store.invoices.On("GetByContractID", mock.Anything, tenantID, contract.ID).Return(nil, repository.ErrNotFound)
		store.contracts.On("Complete", mock.Anything, mock.Anything).Return(nil)
		store.invoices.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)

		svc := newContractService(store, nil, newUser(domain.UserRoleAgent, tenantID), "")
		svc.now = func() time.Time { return returnedAt }
		_, err := svc.ValidateReturn(ctx, ValidateReturnInput{ContractID: contract.ID, DamagesAmount: &damages})

		assert.Equal(t, domain.ErrorKindStateConflict, domain.KindOf(err))
		store.vehicles.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Damages out of range", func(t *testing.T) {
		tooMuch := decimal.NewFromInt(100001)
		_, err := newContractService(newMockStore(), nil, newUser(domain.UserRoleAgent, tenantID), "").
			ValidateReturn(ctx, ValidateReturnInput{ContractID: uuid.New(), DamagesAmount: &tooMuch})
		assert.Equal(t, domain.ErrorKindValidation, domain.KindOf(err))
	})

	t.Run("Draft contract", func(t *testing.T) {
		store := newMockStore()
		contract := activeContract()
		contract.Status = domain.ContractStatusDraft
		store.contracts.On("GetByID", mock.Anything, tenantID, contract.ID).Return(contract, nil)

		_, err := newContractService(store, nil, newUser(domain.UserRoleAgent, tenantID), "").
			ValidateReturn(ctx, ValidateReturnInput{ContractID: contract.ID})
		assert.Equal(t, "contract is not active", domain.PublicMessage(err))
	})
}

func TestContractService_CancelContract(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	setup := func(status domain.ContractStatus) (*MockStore, *domain.RentalContract) {
		store := newMockStore()
		contract := &domain.RentalContract{ID: uuid.New(), TenantID: tenantID, VehicleID: uuid.New(), Status: status}
		store.contracts.On("GetByID", mock.Anything, tenantID, contract.ID).Return(contract, nil)
		return store, contract
	}

	t.Run("Agent cancels a draft", func(t *testing.T) {
		store, contract := setup(domain.ContractStatusDraft)
		store.contracts.On("Cancel", mock.Anything, tenantID, contract.ID, domain.ContractStatusDraft, "client changed plans").Return(nil)
		store.audit.On("Create", mock.Anything, auditAction(domain.AuditEntityContract, domain.AuditActionCancel)).Return(nil)

		got, err := newContractService(store, nil, newUser(domain.UserRoleAgent, tenantID), "").
			CancelContract(ctx, CancelContractInput{ContractID: contract.ID, Reason: "client changed plans"})
		require.NoError(t, err)
		assert.Equal(t, domain.ContractStatusCancelled, got.Status)
		store.vehicles.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Agent cannot cancel an active contract", func(t *testing.T) {
		store, contract := setup(domain.ContractStatusActive)
		_, err := newContractService(store, nil, newUser(domain.UserRoleAgent, tenantID), "").
			CancelContract(ctx, CancelContractInput{ContractID: contract.ID, Reason: "accident"})
		assert.Equal(t, domain.ErrorKindAuthorization, domain.KindOf(err))
	})

	t.Run("Admin cancel releases the vehicle", func(t *testing.T) {
		store, contract := setup(domain.ContractStatusActive)
		store.contracts.On("Cancel", mock.Anything, tenantID, contract.ID, domain.ContractStatusActive, "accident").Return(nil)
		store.vehicles.On("UpdateStatus", mock.Anything, tenantID, contract.VehicleID, domain.VehicleStatusRented, domain.VehicleStatusAvailable).Return(nil)
		store.audit.On("Create", mock.Anything, auditAction(domain.AuditEntityContract, domain.AuditActionCancel)).Return(nil)

		_, err := newContractService(store, nil, newUser(domain.UserRoleAdmin, tenantID), "").
			CancelContract(ctx, CancelContractInput{ContractID: contract.ID, Reason: "accident"})
		require.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("Session resolved once for an active cancel", func(t *testing.T) {
		store, contract := setup(domain.ContractStatusActive)
		store.contracts.On("Cancel", mock.Anything, tenantID, contract.ID, domain.ContractStatusActive, "accident").Return(nil)
		store.vehicles.On("UpdateStatus", mock.Anything, tenantID, contract.VehicleID, domain.VehicleStatusRented, domain.VehicleStatusAvailable).Return(nil)
		store.audit.On("Create", mock.Anything, mock.Anything).Return(nil)
		session := &countingSession{user: newUser(domain.UserRoleAdmin, tenantID)}

		svc := NewContractService(store, security.NewGuard(session), nil, "")
		_, err := svc.CancelContract(ctx, CancelContractInput{ContractID: contract.ID, Reason: "accident"})
		require.NoError(t, err)
		assert.Equal(t, 1, session.calls)
	})

	t.Run("Terminal contract", func(t *testing.T) {
		store, contract := setup(domain.ContractStatusCompleted)
		_, err := newContractService(store, nil, newUser(domain.UserRoleAdmin, tenantID), "").
			CancelContract(ctx, CancelContractInput{ContractID: contract.ID, Reason: "x"})
		assert.Equal(t, domain.ErrorKindStateConflict, domain.KindOf(err))
	})

	t.Run("Reason required", func(t *testing.T) {
		_, err := newContractService(newMockStore(), nil, newUser(domain.UserRoleAdmin, tenantID), "").
			CancelContract(ctx, CancelContractInput{ContractID: uuid.New(), Reason: "  "})
		assert.Equal(t, domain.ErrorKindValidation, domain.KindOf(err))
	})
}
