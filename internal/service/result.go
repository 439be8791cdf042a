package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/logger"
	"fleetrent-backend/internal/metrics"
	"fleetrent-backend/internal/repository"

	"github.com/google/uuid"
)

// Result is the envelope every transport method returns.
type Result[T any] struct {
	Success   bool   `json:"success"`
	Data      T      `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	Field     string `json:"field,omitempty"`
}

// ResultOf converts a workflow return into a Result. Unknown errors are logged
// with their cause; the caller only sees the generic message.
func ResultOf[T any](ctx context.Context, operation string, started time.Time, data T, err error) Result[T] {
	if err == nil {
		metrics.ObserveWorkflow(operation, "ok", started)
		return Result[T]{Success: true, Data: data}
	}

	kind := domain.KindOf(err)
	metrics.ObserveWorkflow(operation, kind.String(), started)
	if kind == domain.ErrorKindUnknown {
		logger.ErrorContext(ctx, "Workflow failed", "operation", operation, "error", err)
	}

	res := Result[T]{Error: domain.PublicMessage(err), ErrorKind: kind.String()}
	var de *domain.Error
	if errors.As(err, &de) {
		res.Field = de.Field
	}
	return res
}

// Run calls fn and converts its outcome, including a panic, into a Result.
func Run[T any](ctx context.Context, operation string, fn func(ctx context.Context) (T, error)) (res Result[T]) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			var zero T
			res = ResultOf(ctx, operation, started, zero, domain.NewUnknownError(fmt.Errorf("panic: %v", r)))
		}
	}()
	data, err := fn(ctx)
	return ResultOf(ctx, operation, started, data, err)
}

// storageError maps repository sentinels onto workflow errors. entity names the
// record in not-found messages; conflict is the message for a lost status race.
func storageError(err error, entity, conflict string) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	switch {
	case errors.As(err, &de):
		return de
	case errors.Is(err, repository.ErrNotFound):
		return domain.NewNotFoundError(entity)
	case errors.Is(err, repository.ErrStatusConflict):
		return domain.NewConflictError(conflict)
	case errors.Is(err, repository.ErrInUse):
		return domain.NewConflictError(entity + " is referenced by other records")
	case errors.Is(err, repository.ErrDuplicate):
		return domain.NewConflictError(entity + " already exists")
	}
	return domain.NewUnknownError(err)
}

func writeAudit(ctx context.Context, tx repository.Store, user *domain.CurrentUser, entity domain.AuditEntity,
	entityID uuid.UUID, action domain.AuditAction, changes, metadata map[string]any) error {
	entry := &domain.AuditLog{
		TenantID:   user.TenantID,
		EntityType: entity,
		EntityID:   entityID,
		Action:     action,
		Changes:    changes,
		Metadata:   metadata,
		UserID:     user.ID,
	}
	if err := tx.Audit().Create(ctx, entry); err != nil {
		return domain.NewUnknownError(fmt.Errorf("write audit log: %w", err))
	}
	return nil
}
