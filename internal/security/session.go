package security

import (
	"context"
	"errors"
	"fmt"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/repository"
)

// SessionResolver returns the signed-in user, or nil when there is none.
type SessionResolver interface {
	CurrentUser(ctx context.Context) (*domain.CurrentUser, error)
}

type claimsKey struct{}

// ContextWithClaims stores verified token claims for the rest of the request
func ContextWithClaims(ctx context.Context, claims *UserClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

func ClaimsFromContext(ctx context.Context) (*UserClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*UserClaims)
	return claims, ok && claims != nil
}

type claimsSessionResolver struct {
	users repository.UserRepository
}

// NewClaimsSessionResolver resolves the user named by the verified claims in
// the context. The user row is looked up inside the claimed tenant only.
func NewClaimsSessionResolver(users repository.UserRepository) SessionResolver {
	return &claimsSessionResolver{users: users}
}

func (r *claimsSessionResolver) CurrentUser(ctx context.Context) (*domain.CurrentUser, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return nil, nil
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, nil
	}

	user, err := r.users.GetByID(ctx, claims.TenantID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session user: %w", err)
	}
	return user.AsCurrentUser(), nil
}
