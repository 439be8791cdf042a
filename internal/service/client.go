package service

import (
	"context"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/rbac"
	"fleetrent-backend/internal/repository"
	"fleetrent-backend/internal/security"

	"github.com/google/uuid"
)

type clientService struct {
	store repository.Store
	guard *security.Guard
}

func NewClientService(store repository.Store, guard *security.Guard) ClientService {
	return &clientService{store: store, guard: guard}
}

func (s *clientService) CreateClient(ctx context.Context, in CreateClientInput) (*domain.Client, error) {
	user, err := s.guard.RequirePermission(ctx, rbac.ResourceClients, rbac.ActionCreate)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	client := &domain.Client{
		TenantID:  user.TenantID,
		FullName:  in.FullName,
		Email:     in.Email,
		Phone:     in.Phone,
		IsTrusted: in.IsTrusted,
	}
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Clients().Create(ctx, client); err != nil {
			return storageError(err, "client", "")
		}
		return writeAudit(ctx, tx, user, domain.AuditEntityClient, client.ID, domain.AuditActionCreate,
			map[string]any{"full_name": client.FullName}, nil)
	})
	if err != nil {
		return nil, storageError(err, "client", "")
	}
	return client, nil
}

func (s *clientService) GetClient(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	user, err := s.guard.RequirePermission(ctx, rbac.ResourceClients, rbac.ActionRead)
	if err != nil {
		return nil, err
	}
	if err := requireID("client_id", id); err != nil {
		return nil, err
	}
	client, err := s.store.Clients().GetByID(ctx, user.TenantID, id)
	if err != nil {
		return nil, storageError(err, "client", "")
	}
	return client, nil
}

func (s *clientService) ListClients(ctx context.Context, page, pageSize int32) (*Page[domain.Client], error) {
	user, err := s.guard.RequirePermission(ctx, rbac.ResourceClients, rbac.ActionRead)
	if err != nil {
		return nil, err
	}
	clients, total, err := s.store.Clients().List(ctx, user.TenantID, page, pageSize)
	if err != nil {
		return nil, storageError(err, "client", "")
	}
	return &Page[domain.Client]{Items: clients, Total: total, Page: page, PageSize: pageSize}, nil
}
