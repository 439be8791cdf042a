package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ContractStatus string

const (
	ContractStatusDraft     ContractStatus = "draft"
	ContractStatusApproved  ContractStatus = "approved"
	ContractStatusPendingCG ContractStatus = "pending_cg"
	ContractStatusActive    ContractStatus = "active"
	ContractStatusCompleted ContractStatus = "completed"
	ContractStatusCancelled ContractStatus = "cancelled"
)

// ContractTransitions is one-directional; cancellation is reachable from
// every non-terminal state and is itself terminal.
var ContractTransitions = map[ContractStatus][]ContractStatus{
	ContractStatusDraft:     {ContractStatusApproved, ContractStatusPendingCG, ContractStatusCancelled},
	ContractStatusApproved:  {ContractStatusActive, ContractStatusCancelled},
	ContractStatusPendingCG: {ContractStatusActive, ContractStatusCancelled},
	ContractStatusActive:    {ContractStatusCompleted, ContractStatusCancelled},
	ContractStatusCompleted: {},
	ContractStatusCancelled: {},
}

func (s ContractStatus) Valid() bool {
	_, ok := ContractTransitions[s]
	return ok
}

func (s ContractStatus) CanTransitionTo(to ContractStatus) bool {
	for _, allowed := range ContractTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s ContractStatus) IsTerminal() bool {
	return len(ContractTransitions[s]) == 0
}

type RentalContract struct {
	ID        uuid.UUID      `json:"id"`
	TenantID  uuid.UUID      `json:"tenant_id"`
	ClientID  uuid.UUID      `json:"client_id"`
	VehicleID uuid.UUID      `json:"vehicle_id"`
	Status    ContractStatus `json:"status"`
	StartDate time.Time      `json:"start_date"`
	EndDate   time.Time      `json:"end_date"`
	// DailyRate is captured from the vehicle when the contract is created.
	// Every amount on the contract is computed from this snapshot.
	DailyRate        decimal.Decimal `json:"daily_rate"`
	OptionsAmount    decimal.Decimal `json:"options_amount"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	DepositAmount    decimal.Decimal `json:"deposit_amount"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	DamagesAmount    decimal.Decimal `json:"damages_amount"`
	TermsAccepted    bool            `json:"terms_accepted"`
	ActualReturnDate *time.Time      `json:"actual_return_date,omitempty"`
	ReturnMileage    *int            `json:"return_mileage,omitempty"`
	CancelReason     string          `json:"cancel_reason,omitempty"`
	CreatedBy        uuid.UUID       `json:"created_by"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ContractListFilter narrows ListContracts; zero values mean no filter.
type ContractListFilter struct {
	Statuses  []ContractStatus
	ClientID  *uuid.UUID
	VehicleID *uuid.UUID
	Page      int32
	PageSize  int32
}
