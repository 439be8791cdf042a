package service

import (
	"context"
	"time"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/rbac"
	"fleetrent-backend/internal/repository"
	"fleetrent-backend/internal/security"

	"github.com/google/uuid"
)

const (
	msgPaymentExceedsBalance = "payment exceeds invoice balance"
	msgInvoiceClosed         = "invoice no longer accepts payments"
	msgInvoiceChanged        = "invoice changed concurrently, please retry"
	msgInvoiceOutstanding    = "invoice has an outstanding balance"
)

type billingService struct {
	store repository.Store
	guard *security.Guard
	now   func() time.Time
}

func NewBillingService(store repository.Store, guard *security.Guard) BillingService {
	return &billingService{store: store, guard: guard, now: time.Now}
}

// RecordPayment records a payment and lowers the invoice balance. The balance
// write only succeeds if no other payment landed in between.
func (s *billingService) RecordPayment(ctx context.Context, in RecordPaymentInput) (*domain.Invoice, error) {
	user, err := s.guard.RequirePermission(ctx, rbac.ResourcePayments, rbac.ActionCreate)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var invoice *domain.Invoice
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		current, err := tx.Invoices().GetByID(ctx, user.TenantID, in.InvoiceID)
		if err != nil {
			return storageError(err, "invoice", "")
		}
		if !current.Status.AcceptsPayments() {
			return domain.NewConflictError(msgInvoiceClosed)
		}
		if in.Amount.GreaterThan(current.Balance) {
			return domain.NewConflictError(msgPaymentExceedsBalance)
		}

		paidAt := s.now().UTC()
		if in.PaidAt != nil {
			paidAt = in.PaidAt.UTC()
		}
		payment := &domain.Payment{
			TenantID:   user.TenantID,
			InvoiceID:  current.ID,
			Amount:     in.Amount,
			Method:     in.Method,
			Reference:  in.Reference,
			PaidAt:     paidAt,
			RecordedBy: user.ID,
		}
		if err := tx.Payments().Create(ctx, payment); err != nil {
			return storageError(err, "payment", "")
		}

		previous := current.Balance
		balance := previous.Sub(in.Amount)
		status := current.Status
		if balance.IsZero() && status.CanTransitionTo(domain.InvoiceStatusPaid) {
			status = domain.InvoiceStatusPaid
		}
		if err := tx.Invoices().ApplyPayment(ctx, user.TenantID, current.ID, previous, balance, status); err != nil {
			return storageError(err, "invoice", msgInvoiceChanged)
		}

		changes := map[string]any{
			"payment_id": payment.ID.String(),
			"amount":     in.Amount.String(),
			"balance":    map[string]any{"from": previous.String(), "to": balance.String()},
		}
		if status != current.Status {
			changes["status"] = domain.StatusChange(current.Status, status)
		}
		current.Balance = balance
		current.Status = status
		invoice = current
		return writeAudit(ctx, tx, user, domain.AuditEntityInvoice, current.ID, domain.AuditActionPayment,
			changes, map[string]any{"method": string(in.Method), "reference": in.Reference})
	})
	if err != nil {
		return nil, storageError(err, "invoice", msgInvoiceChanged)
	}
	return invoice, nil
}

func (s *billingService) ChangeInvoiceStatus(ctx context.Context, in ChangeInvoiceStatusInput) (*domain.Invoice, error) {
	user, err := s.guard.RequirePermission(ctx, rbac.ResourceInvoices, rbac.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var invoice *domain.Invoice
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		current, err := tx.Invoices().GetByID(ctx, user.TenantID, in.InvoiceID)
		if err != nil {
			return storageError(err, "invoice", "")
		}
		from := current.Status
		if !from.CanTransitionTo(in.Status) {
			return domain.NewConflictError("invoice cannot move from " + string(from) + " to " + string(in.Status))
		}
		if in.Status == domain.InvoiceStatusPaid && !current.Balance.IsZero() {
			return domain.NewConflictError(msgInvoiceOutstanding)
		}
		if err := tx.Invoices().UpdateStatus(ctx, user.TenantID, current.ID, from, in.Status); err != nil {
			return storageError(err, "invoice", msgInvoiceChanged)
		}
		current.Status = in.Status
		invoice = current
		return writeAudit(ctx, tx, user, domain.AuditEntityInvoice, current.ID, domain.AuditActionStatusChange,
			domain.StatusChange(from, in.Status), map[string]any{"reason": in.Reason})
	})
	if err != nil {
		return nil, storageError(err, "invoice", msgInvoiceChanged)
	}
	return invoice, nil
}

func (s *billingService) GetInvoice(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	user, err := s.guard.RequirePermission(ctx, rbac.ResourceInvoices, rbac.ActionRead)
	if err != nil {
		return nil, err
	}
	if err := requireID("invoice_id", id); err != nil {
		return nil, err
	}
	invoice, err := s.store.Invoices().GetByID(ctx, user.TenantID, id)
	if err != nil {
		return nil, storageError(err, "invoice", "")
	}
	if invoice.Payments, err = s.store.Payments().ListByInvoice(ctx, user.TenantID, id); err != nil {
		return nil, storageError(err, "payment", "")
	}
	return invoice, nil
}

func (s *billingService) ListAuditLogs(ctx context.Context, in ListAuditLogsInput) ([]domain.AuditLog, error) {
	user, err := s.guard.RequirePermission(ctx, rbac.ResourceAuditLogs, rbac.ActionRead)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	logs, err := s.store.Audit().ListByEntity(ctx, user.TenantID, in.EntityType, in.EntityID)
	if err != nil {
		return nil, storageError(err, "audit log", "")
	}
	return logs, nil
}
