package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MaintenanceStatus string

const (
	MaintenanceStatusOpen       MaintenanceStatus = "open"
	MaintenanceStatusInProgress MaintenanceStatus = "in_progress"
	MaintenanceStatusCompleted  MaintenanceStatus = "completed"
)

var MaintenanceTransitions = map[MaintenanceStatus][]MaintenanceStatus{
	MaintenanceStatusOpen:       {MaintenanceStatusInProgress, MaintenanceStatusCompleted},
	MaintenanceStatusInProgress: {MaintenanceStatusCompleted},
	MaintenanceStatusCompleted:  {},
}

func (s MaintenanceStatus) CanTransitionTo(to MaintenanceStatus) bool {
	for _, allowed := range MaintenanceTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

type MaintenanceType string

const (
	MaintenanceTypePreventive MaintenanceType = "preventive"
	MaintenanceTypeCorrective MaintenanceType = "corrective"
	MaintenanceTypeInspection MaintenanceType = "inspection"
	MaintenanceTypeBodywork   MaintenanceType = "bodywork"
	MaintenanceTypeOther      MaintenanceType = "other"
)

func (t MaintenanceType) Valid() bool {
	switch t {
	case MaintenanceTypePreventive, MaintenanceTypeCorrective, MaintenanceTypeInspection,
		MaintenanceTypeBodywork, MaintenanceTypeOther:
		return true
	}
	return false
}

type MaintenanceRecord struct {
	ID            uuid.UUID         `json:"id"`
	TenantID      uuid.UUID         `json:"tenant_id"`
	VehicleID     uuid.UUID         `json:"vehicle_id"`
	Type          MaintenanceType   `json:"type"`
	Description   string            `json:"description"`
	Status        MaintenanceStatus `json:"status"`
	StartDate     time.Time         `json:"start_date"`
	EndDate       *time.Time        `json:"end_date,omitempty"`
	EstimatedCost decimal.Decimal   `json:"estimated_cost"`
	FinalCost     *decimal.Decimal  `json:"final_cost,omitempty"`
	CreatedBy     uuid.UUID         `json:"created_by"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}
