package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InspectionKind string

const (
	InspectionKindDeparture InspectionKind = "departure"
	InspectionKindReturn    InspectionKind = "return"
)

func (k InspectionKind) Valid() bool {
	return k == InspectionKindDeparture || k == InspectionKindReturn
}

type Damage struct {
	Location    string          `json:"location"`
	Description string          `json:"description"`
	Cost        decimal.Decimal `json:"cost"`
}

type Inspection struct {
	ID          uuid.UUID      `json:"id"`
	TenantID    uuid.UUID      `json:"tenant_id"`
	ContractID  uuid.UUID      `json:"contract_id"`
	Kind        InspectionKind `json:"kind"`
	IsDraft     bool           `json:"is_draft"`
	Mileage     int            `json:"mileage"`
	FuelLevel   int            `json:"fuel_level"` // percent
	Damages     []Damage       `json:"damages"`
	Notes       string         `json:"notes"`
	CreatedBy   uuid.UUID      `json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	FinalizedAt *time.Time     `json:"finalized_at,omitempty"`
}

func (i *Inspection) DamagesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, d := range i.Damages {
		total = total.Add(d.Cost)
	}
	return total
}
