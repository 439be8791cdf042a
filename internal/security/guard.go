package security

import (
	"context"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/logger"
	"fleetrent-backend/internal/rbac"
)

// Guard is the first call of every workflow. The returned user's TenantID is
// the only tenant id the workflow may pass to storage.
type Guard struct {
	sessions SessionResolver
}

func NewGuard(sessions SessionResolver) *Guard {
	return &Guard{sessions: sessions}
}

func (g *Guard) RequirePermission(ctx context.Context, resource rbac.Resource, action rbac.Action) (*domain.CurrentUser, error) {
	user, err := g.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	if !rbac.HasPermission(user.Role, resource, action) {
		logger.WarnContext(ctx, "Permission denied", "user_id", user.ID, "role", user.Role, "resource", resource, "action", action)
		return nil, domain.NewAuthorizationError()
	}
	return user, nil
}

func (g *Guard) RequireSpecialPermission(ctx context.Context, capability rbac.Capability) (*domain.CurrentUser, error) {
	user, err := g.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	if !rbac.HasSpecialPermission(user.Role, capability) {
		logger.WarnContext(ctx, "Capability denied", "user_id", user.ID, "role", user.Role, "capability", capability)
		return nil, domain.NewAuthorizationError()
	}
	return user, nil
}

func (g *Guard) authenticate(ctx context.Context) (*domain.CurrentUser, error) {
	user, err := g.sessions.CurrentUser(ctx)
	if err != nil {
		return nil, domain.NewUnknownError(err)
	}
	if user == nil || !user.IsActive {
		return nil, domain.NewAuthenticationError()
	}
	return user, nil
}
