package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type VehicleStatus string

const (
	VehicleStatusAvailable    VehicleStatus = "available"
	VehicleStatusRented       VehicleStatus = "rented"
	VehicleStatusMaintenance  VehicleStatus = "maintenance"
	VehicleStatusOutOfService VehicleStatus = "out_of_service"
)

// VehicleTransitions lists the targets a direct status change may move a
// vehicle to. Rented vehicles only leave that state through contract closing
// or cancellation.
var VehicleTransitions = map[VehicleStatus][]VehicleStatus{
	VehicleStatusAvailable:    {VehicleStatusMaintenance, VehicleStatusOutOfService},
	VehicleStatusRented:       {},
	VehicleStatusMaintenance:  {VehicleStatusAvailable, VehicleStatusOutOfService},
	VehicleStatusOutOfService: {VehicleStatusAvailable, VehicleStatusMaintenance},
}

func (s VehicleStatus) Valid() bool {
	_, ok := VehicleTransitions[s]
	return ok
}

func (s VehicleStatus) CanTransitionTo(to VehicleStatus) bool {
	for _, allowed := range VehicleTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

type Vehicle struct {
	ID         uuid.UUID       `json:"id"`
	TenantID   uuid.UUID       `json:"tenant_id"`
	CategoryID *uuid.UUID      `json:"category_id,omitempty"`
	Plate      string          `json:"plate"`
	Make       string          `json:"make"`
	Model      string          `json:"model"`
	Mileage    int             `json:"mileage"`
	Status     VehicleStatus   `json:"status"`
	DailyRate  decimal.Decimal `json:"daily_rate"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
