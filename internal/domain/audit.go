package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuditEntity string

const (
	AuditEntityVehicle     AuditEntity = "vehicle"
	AuditEntityClient      AuditEntity = "client"
	AuditEntityContract    AuditEntity = "contract"
	AuditEntityInspection  AuditEntity = "inspection"
	AuditEntityInvoice     AuditEntity = "invoice"
	AuditEntityMaintenance AuditEntity = "maintenance"
)

type AuditAction string

const (
	AuditActionCreate       AuditAction = "create"
	AuditActionUpdate       AuditAction = "update"
	AuditActionDelete       AuditAction = "delete"
	AuditActionStatusChange AuditAction = "status_change"
	AuditActionApprove      AuditAction = "approve"
	AuditActionActivate     AuditAction = "activate"
	AuditActionClose        AuditAction = "close"
	AuditActionCancel       AuditAction = "cancel"
	AuditActionFinalize     AuditAction = "finalize"
	AuditActionPayment      AuditAction = "payment"
)

// AuditLog rows are write-once.
type AuditLog struct {
	ID         uuid.UUID      `json:"id"`
	TenantID   uuid.UUID      `json:"tenant_id"`
	EntityType AuditEntity    `json:"entity_type"`
	EntityID   uuid.UUID      `json:"entity_id"`
	Action     AuditAction    `json:"action"`
	Changes    map[string]any `json:"changes"`
	Metadata   map[string]any `json:"metadata"`
	UserID     uuid.UUID      `json:"user_id"`
	CreatedAt  time.Time      `json:"created_at"`
}

// StatusChange builds the conventional {from, to} changes payload.
func StatusChange[S ~string](from, to S) map[string]any {
	return map[string]any{"from": string(from), "to": string(to)}
}
