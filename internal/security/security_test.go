package security

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/rbac"
	"fleetrent-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) ListByRole(ctx context.Context, tenantID uuid.UUID, role domain.UserRole) ([]domain.User, error) {
	args := m.Called(ctx, tenantID, role)
	return args.Get(0).([]domain.User), args.Error(1)
}

type staticSession struct {
	user *domain.CurrentUser
	err  error
}

func (s staticSession) CurrentUser(ctx context.Context) (*domain.CurrentUser, error) {
	return s.user, s.err
}

func TestTokenManager(t *testing.T) {
	tm := NewTokenManager(testSecret, "fleetrent-identity", time.Hour)
	userID, tenantID := uuid.New(), uuid.New()

	t.Run("Round trip", func(t *testing.T) {
		token, err := tm.IssueAccessToken(userID, tenantID, "agent@example.com", "agent")
		require.NoError(t, err)

		claims, err := tm.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, tenantID, claims.TenantID)
		got, err := claims.UserID()
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		other := NewTokenManager("ffffffffffffffffffffffffffffffff", "fleetrent-identity", time.Hour)
		token, err := other.IssueAccessToken(userID, tenantID, "", "admin")
		require.NoError(t, err)

		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		expired := &tokenManager{secret: []byte(testSecret), issuer: "fleetrent-identity", ttl: time.Minute,
			now: func() time.Time { return time.Now().Add(-time.Hour) }}
		token, err := expired.IssueAccessToken(userID, tenantID, "", "admin")
		require.NoError(t, err)

		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("Wrong issuer", func(t *testing.T) {
		other := NewTokenManager(testSecret, "someone-else", time.Hour)
		token, err := other.IssueAccessToken(userID, tenantID, "", "admin")
		require.NoError(t, err)

		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Missing tenant", func(t *testing.T) {
		claims := UserClaims{Type: TokenTypeAccess, RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    "fleetrent-identity",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestClaimsSessionResolver(t *testing.T) {
	userID, tenantID := uuid.New(), uuid.New()
	claims := &UserClaims{TenantID: tenantID, Type: TokenTypeAccess, RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()}}

	t.Run("No claims", func(t *testing.T) {
		repo := new(MockUserRepo)
		user, err := NewClaimsSessionResolver(repo).CurrentUser(context.Background())
		assert.NoError(t, err)
		assert.Nil(t, user)
		repo.AssertNotCalled(t, "GetByID")
	})

	t.Run("Loads user scoped to claimed tenant", func(t *testing.T) {
		repo := new(MockUserRepo)
		repo.On("GetByID", mock.Anything, tenantID, userID).
			Return(&domain.User{ID: userID, TenantID: tenantID, Role: domain.UserRoleAgent, IsActive: true}, nil)

		ctx := ContextWithClaims(context.Background(), claims)
		user, err := NewClaimsSessionResolver(repo).CurrentUser(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.UserRoleAgent, user.Role)
		assert.Equal(t, tenantID, user.TenantID)
		repo.AssertExpectations(t)
	})

	t.Run("Unknown user is no session", func(t *testing.T) {
		repo := new(MockUserRepo)
		repo.On("GetByID", mock.Anything, tenantID, userID).Return(nil, repository.ErrNotFound)

		ctx := ContextWithClaims(context.Background(), claims)
		user, err := NewClaimsSessionResolver(repo).CurrentUser(ctx)
		assert.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("Storage failure", func(t *testing.T) {
		repo := new(MockUserRepo)
		repo.On("GetByID", mock.Anything, tenantID, userID).Return(nil, errors.New("connection refused"))

		ctx := ContextWithClaims(context.Background(), claims)
		_, err := NewClaimsSessionResolver(repo).CurrentUser(ctx)
		assert.Error(t, err)
	})
}

func TestGuard_RequirePermission(t *testing.T) {
	ctx := context.Background()
	active := func(role domain.UserRole) *domain.CurrentUser {
		return &domain.CurrentUser{ID: uuid.New(), TenantID: uuid.New(), Role: role, IsActive: true}
	}

	t.Run("No session", func(t *testing.T) {
		_, err := NewGuard(staticSession{}).RequirePermission(ctx, rbac.ResourceVehicles, rbac.ActionRead)
		assert.Equal(t, domain.ErrorKindAuthentication, domain.KindOf(err))
		assert.Equal(t, domain.MsgSignIn, domain.PublicMessage(err))
	})

	t.Run("Inactive user", func(t *testing.T) {
		u := active(domain.UserRoleAdmin)
		u.IsActive = false
		_, err := NewGuard(staticSession{user: u}).RequirePermission(ctx, rbac.ResourceVehicles, rbac.ActionRead)
		assert.Equal(t, domain.ErrorKindAuthentication, domain.KindOf(err))
	})

	t.Run("Missing permission", func(t *testing.T) {
		_, err := NewGuard(staticSession{user: active(domain.UserRoleViewer)}).RequirePermission(ctx, rbac.ResourceVehicles, rbac.ActionDelete)
		assert.Equal(t, domain.ErrorKindAuthorization, domain.KindOf(err))
		assert.Equal(t, domain.MsgNoPermission, domain.PublicMessage(err))
	})

	t.Run("Granted", func(t *testing.T) {
		u := active(domain.UserRoleAdmin)
		got, err := NewGuard(staticSession{user: u}).RequirePermission(ctx, rbac.ResourceVehicles, rbac.ActionDelete)
		require.NoError(t, err)
		assert.Equal(t, u, got)
	})

	t.Run("Session failure is unknown", func(t *testing.T) {
		_, err := NewGuard(staticSession{err: errors.New("db down")}).RequirePermission(ctx, rbac.ResourceVehicles, rbac.ActionRead)
		assert.Equal(t, domain.ErrorKindUnknown, domain.KindOf(err))
		assert.Equal(t, domain.MsgGenericFailed, domain.PublicMessage(err))
	})
}

func TestGuard_RequireSpecialPermission(t *testing.T) {
	ctx := context.Background()
	agent := &domain.CurrentUser{ID: uuid.New(), TenantID: uuid.New(), Role: domain.UserRoleAgent, IsActive: true}

	_, err := NewGuard(staticSession{user: agent}).RequireSpecialPermission(ctx, rbac.CapApproveContracts)
	assert.NoError(t, err)

	_, err = NewGuard(staticSession{user: agent}).RequireSpecialPermission(ctx, rbac.CapCloseAnyContract)
	assert.Equal(t, domain.ErrorKindAuthorization, domain.KindOf(err))
}
