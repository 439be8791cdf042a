package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusPending      InvoiceStatus = "pending"
	InvoiceStatusInvoiced     InvoiceStatus = "invoiced"
	InvoiceStatusVerification InvoiceStatus = "verification"
	InvoiceStatusPaid         InvoiceStatus = "paid"
	InvoiceStatusConflict     InvoiceStatus = "conflict"
	InvoiceStatusCancelled    InvoiceStatus = "cancelled"
)

var InvoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusPending:      {InvoiceStatusInvoiced, InvoiceStatusPaid, InvoiceStatusCancelled},
	InvoiceStatusInvoiced:     {InvoiceStatusVerification, InvoiceStatusPaid, InvoiceStatusConflict, InvoiceStatusCancelled},
	InvoiceStatusVerification: {InvoiceStatusPaid, InvoiceStatusConflict},
	InvoiceStatusConflict:     {InvoiceStatusVerification, InvoiceStatusCancelled},
	InvoiceStatusPaid:         {},
	InvoiceStatusCancelled:    {},
}

func (s InvoiceStatus) Valid() bool {
	_, ok := InvoiceTransitions[s]
	return ok
}

func (s InvoiceStatus) CanTransitionTo(to InvoiceStatus) bool {
	for _, allowed := range InvoiceTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AcceptsPayments reports whether payments may still be recorded against an
// invoice in this status.
func (s InvoiceStatus) AcceptsPayments() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusInvoiced, InvoiceStatusVerification, InvoiceStatusConflict:
		return true
	}
	return false
}

type Invoice struct {
	ID          uuid.UUID       `json:"id"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	ContractID  uuid.UUID       `json:"contract_id"`
	Number      string          `json:"number"`
	Status      InvoiceStatus   `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Balance     decimal.Decimal `json:"balance"`
	IssuedAt    time.Time       `json:"issued_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Payments    []Payment       `json:"payments,omitempty"` // Populated by GetInvoice
}

type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodCheck    PaymentMethod = "check"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer, PaymentMethodCheck:
		return true
	}
	return false
}

type Payment struct {
	ID         uuid.UUID       `json:"id"`
	TenantID   uuid.UUID       `json:"tenant_id"`
	InvoiceID  uuid.UUID       `json:"invoice_id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     PaymentMethod   `json:"method"`
	Reference  string          `json:"reference"`
	PaidAt     time.Time       `json:"paid_at"`
	RecordedBy uuid.UUID       `json:"recorded_by"`
	CreatedAt  time.Time       `json:"created_at"`
}
