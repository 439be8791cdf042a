package service

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"fleetrent-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	maxReasonLength      = 500
	maxDescriptionLength = 1000
	maxNotesLength       = 2000
)

// maxAmount bounds every user-entered money value.
var maxAmount = decimal.NewFromInt(100000)

// moneyPlaces matches the scale of every NUMERIC(12,2) money column.
const moneyPlaces = 2

func requireID(field string, id uuid.UUID) error {
	if id == uuid.Nil {
		return domain.NewValidationError(field, field+" is required")
	}
	return nil
}

func requireText(field, value string, max int) error {
	if strings.TrimSpace(value) == "" {
		return domain.NewValidationError(field, field+" is required")
	}
	return maxLength(field, value, max)
}

func maxLength(field, value string, max int) error {
	if len([]rune(value)) > max {
		return domain.NewValidationError(field, fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	return nil
}

func amountInRange(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return domain.NewValidationError(field, field+" must not be negative")
	}
	if d.GreaterThan(maxAmount) {
		return domain.NewValidationError(field, fmt.Sprintf("%s must not exceed %s", field, maxAmount))
	}
	if !d.Equal(d.Truncate(moneyPlaces)) {
		return domain.NewValidationError(field, fmt.Sprintf("%s must have at most %d decimal places", field, moneyPlaces))
	}
	return nil
}

// firstError returns the first non-nil error in order.
func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

type CreateVehicleInput struct {
	CategoryID *uuid.UUID      `json:"category_id,omitempty"`
	Plate      string          `json:"plate"`
	Make       string          `json:"make"`
	Model      string          `json:"model"`
	Mileage    int             `json:"mileage"`
	DailyRate  decimal.Decimal `json:"daily_rate"`
}

func (in CreateVehicleInput) Validate() error {
	if err := firstError(
		requireText("plate", in.Plate, 20),
		requireText("make", in.Make, 100),
		requireText("model", in.Model, 100),
	); err != nil {
		return err
	}
	if in.Mileage < 0 {
		return domain.NewValidationError("mileage", "mileage must not be negative")
	}
	if !in.DailyRate.IsPositive() {
		return domain.NewValidationError("daily_rate", "daily_rate must be positive")
	}
	return amountInRange("daily_rate", in.DailyRate)
}

type UpdateVehicleInput struct {
	VehicleID  uuid.UUID       `json:"vehicle_id"`
	CategoryID *uuid.UUID      `json:"category_id,omitempty"`
	Plate      string          `json:"plate"`
	Make       string          `json:"make"`
	Model      string          `json:"model"`
	DailyRate  decimal.Decimal `json:"daily_rate"`
}

func (in UpdateVehicleInput) Validate() error {
	if err := requireID("vehicle_id", in.VehicleID); err != nil {
		return err
	}
	return CreateVehicleInput{
		CategoryID: in.CategoryID,
		Plate:      in.Plate,
		Make:       in.Make,
		Model:      in.Model,
		DailyRate:  in.DailyRate,
	}.Validate()
}

type ListVehiclesInput struct {
	Status   domain.VehicleStatus `json:"status,omitempty"`
	Page     int32                `json:"page"`
	PageSize int32                `json:"page_size"`
}

func (in ListVehiclesInput) Validate() error {
	if in.Status != "" && !in.Status.Valid() {
		return domain.NewValidationError("status", "unknown vehicle status")
	}
	return nil
}

type ChangeVehicleStatusInput struct {
	VehicleID               uuid.UUID              `json:"vehicle_id"`
	NewStatus               domain.VehicleStatus   `json:"new_status"`
	Reason                  string                 `json:"reason,omitempty"`
	CreateMaintenanceRecord bool                   `json:"create_maintenance_record"`
	MaintenanceDescription  string                 `json:"maintenance_description,omitempty"`
	MaintenanceType         domain.MaintenanceType `json:"maintenance_type,omitempty"`
}

func (in *ChangeVehicleStatusInput) Validate() error {
	if err := requireID("vehicle_id", in.VehicleID); err != nil {
		return err
	}
	if !in.NewStatus.Valid() {
		return domain.NewValidationError("new_status", "unknown vehicle status")
	}
	if err := maxLength("reason", in.Reason, maxReasonLength); err != nil {
		return err
	}
	if !in.CreateMaintenanceRecord {
		return nil
	}
	if in.NewStatus != domain.VehicleStatusMaintenance {
		return domain.NewValidationError("new_status", "a maintenance record can only be opened when moving to maintenance")
	}
	if err := requireText("maintenance_description", in.MaintenanceDescription, maxDescriptionLength); err != nil {
		return err
	}
	if in.MaintenanceType == "" {
		in.MaintenanceType = domain.MaintenanceTypeCorrective
	}
	if !in.MaintenanceType.Valid() {
		return domain.NewValidationError("maintenance_type", "unknown maintenance type")
	}
	return nil
}

type CreateClientInput struct {
	FullName  string `json:"full_name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	IsTrusted bool   `json:"is_trusted"`
}

func (in CreateClientInput) Validate() error {
	if err := requireText("full_name", in.FullName, 200); err != nil {
		return err
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return domain.NewValidationError("email", "email is not a valid address")
		}
	}
	return maxLength("phone", in.Phone, 30)
}

type CreateContractInput struct {
	ClientID       uuid.UUID       `json:"client_id"`
	VehicleID      uuid.UUID       `json:"vehicle_id"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	OptionsAmount  decimal.Decimal `json:"options_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	DepositAmount  decimal.Decimal `json:"deposit_amount"`
}

func (in CreateContractInput) Validate() error {
	if err := firstError(
		requireID("client_id", in.ClientID),
		requireID("vehicle_id", in.VehicleID),
	); err != nil {
		return err
	}
	if in.StartDate.IsZero() {
		return domain.NewValidationError("start_date", "start_date is required")
	}
	if !in.EndDate.After(in.StartDate) {
		return domain.NewValidationError("end_date", "end_date must be after start_date")
	}
	return firstError(
		amountInRange("options_amount", in.OptionsAmount),
		amountInRange("discount_amount", in.DiscountAmount),
		amountInRange("deposit_amount", in.DepositAmount),
	)
}

type ApproveContractInput struct {
	ContractID    uuid.UUID `json:"contract_id"`
	TermsAccepted bool      `json:"terms_accepted"`
}

func (in ApproveContractInput) Validate() error {
	return requireID("contract_id", in.ContractID)
}

type ValidateReturnInput struct {
	ContractID uuid.UUID `json:"contract_id"`
	// DamagesAmount defaults to the damage total of the finalized return
	// inspection, or zero without one.
	DamagesAmount    *decimal.Decimal `json:"damages_amount,omitempty"`
	ReturnMileage    *int             `json:"return_mileage,omitempty"`
	ActualReturnDate *time.Time       `json:"actual_return_date,omitempty"`
}

func (in ValidateReturnInput) Validate() error {
	if err := requireID("contract_id", in.ContractID); err != nil {
		return err
	}
	if in.DamagesAmount != nil {
		if err := amountInRange("damages_amount", *in.DamagesAmount); err != nil {
			return err
		}
	}
	if in.ReturnMileage != nil && *in.ReturnMileage < 0 {
		return domain.NewValidationError("return_mileage", "return_mileage must not be negative")
	}
	return nil
}

type CancelContractInput struct {
	ContractID uuid.UUID `json:"contract_id"`
	Reason     string    `json:"reason"`
}

func (in CancelContractInput) Validate() error {
	return firstError(
		requireID("contract_id", in.ContractID),
		requireText("reason", in.Reason, maxReasonLength),
	)
}

type ListContractsInput struct {
	Statuses  []domain.ContractStatus `json:"statuses,omitempty"`
	ClientID  *uuid.UUID              `json:"client_id,omitempty"`
	VehicleID *uuid.UUID              `json:"vehicle_id,omitempty"`
	Page      int32                   `json:"page"`
	PageSize  int32                   `json:"page_size"`
}

func (in ListContractsInput) Validate() error {
	for _, s := range in.Statuses {
		if !s.Valid() {
			return domain.NewValidationError("statuses", "unknown contract status: "+string(s))
		}
	}
	return nil
}

type RecordInspectionInput struct {
	ContractID uuid.UUID             `json:"contract_id"`
	Kind       domain.InspectionKind `json:"kind"`
	Mileage    int                   `json:"mileage"`
	FuelLevel  int                   `json:"fuel_level"`
	Damages    []domain.Damage       `json:"damages,omitempty"`
	Notes      string                `json:"notes,omitempty"`
}

func (in RecordInspectionInput) Validate() error {
	if err := requireID("contract_id", in.ContractID); err != nil {
		return err
	}
	if !in.Kind.Valid() {
		return domain.NewValidationError("kind", "kind must be departure or return")
	}
	if in.Mileage < 0 {
		return domain.NewValidationError("mileage", "mileage must not be negative")
	}
	if in.FuelLevel < 0 || in.FuelLevel > 100 {
		return domain.NewValidationError("fuel_level", "fuel_level must be between 0 and 100")
	}
	for i, d := range in.Damages {
		field := fmt.Sprintf("damages[%d]", i)
		if err := firstError(
			requireText(field+".location", d.Location, 200),
			maxLength(field+".description", d.Description, maxDescriptionLength),
			amountInRange(field+".cost", d.Cost),
		); err != nil {
			return err
		}
	}
	return maxLength("notes", in.Notes, maxNotesLength)
}

type OpenMaintenanceInput struct {
	VehicleID     uuid.UUID              `json:"vehicle_id"`
	Type          domain.MaintenanceType `json:"type"`
	Description   string                 `json:"description"`
	EstimatedCost decimal.Decimal        `json:"estimated_cost"`
	StartDate     *time.Time             `json:"start_date,omitempty"`
}

func (in OpenMaintenanceInput) Validate() error {
	if err := requireID("vehicle_id", in.VehicleID); err != nil {
		return err
	}
	if !in.Type.Valid() {
		return domain.NewValidationError("type", "unknown maintenance type")
	}
	return firstError(
		requireText("description", in.Description, maxDescriptionLength),
		amountInRange("estimated_cost", in.EstimatedCost),
	)
}

type CloseMaintenanceInput struct {
	RecordID       uuid.UUID        `json:"record_id"`
	FinalCost      *decimal.Decimal `json:"final_cost,omitempty"`
	EndDate        *time.Time       `json:"end_date,omitempty"`
	ReleaseVehicle bool             `json:"release_vehicle"`
}

func (in CloseMaintenanceInput) Validate() error {
	if err := requireID("record_id", in.RecordID); err != nil {
		return err
	}
	if in.FinalCost != nil {
		return amountInRange("final_cost", *in.FinalCost)
	}
	return nil
}

type RecordPaymentInput struct {
	InvoiceID uuid.UUID            `json:"invoice_id"`
	Amount    decimal.Decimal      `json:"amount"`
	Method    domain.PaymentMethod `json:"method"`
	Reference string               `json:"reference,omitempty"`
	PaidAt    *time.Time           `json:"paid_at,omitempty"`
}

func (in RecordPaymentInput) Validate() error {
	if err := requireID("invoice_id", in.InvoiceID); err != nil {
		return err
	}
	if !in.Amount.IsPositive() {
		return domain.NewValidationError("amount", "amount must be positive")
	}
	if err := amountInRange("amount", in.Amount); err != nil {
		return err
	}
	if !in.Method.Valid() {
		return domain.NewValidationError("method", "unknown payment method")
	}
	return maxLength("reference", in.Reference, 100)
}

type ChangeInvoiceStatusInput struct {
	InvoiceID uuid.UUID            `json:"invoice_id"`
	Status    domain.InvoiceStatus `json:"status"`
	Reason    string               `json:"reason,omitempty"`
}

func (in ChangeInvoiceStatusInput) Validate() error {
	if err := requireID("invoice_id", in.InvoiceID); err != nil {
		return err
	}
	if !in.Status.Valid() {
		return domain.NewValidationError("status", "unknown invoice status")
	}
	return maxLength("reason", in.Reason, maxReasonLength)
}

type ListAuditLogsInput struct {
	EntityType domain.AuditEntity `json:"entity_type"`
	EntityID   uuid.UUID          `json:"entity_id"`
}

func (in ListAuditLogsInput) Validate() error {
	if in.EntityType == "" {
		return domain.NewValidationError("entity_type", "entity_type is required")
	}
	return requireID("entity_id", in.EntityID)
}
