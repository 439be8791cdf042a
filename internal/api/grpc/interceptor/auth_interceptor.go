package interceptor

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"fleetrent-backend/internal/config"
	"fleetrent-backend/internal/logger"
	"fleetrent-backend/internal/security"
)

// identityHeaders are never trusted when sent by the client.
var identityHeaders = []string{"user-id", "tenant-id", "x-user-id", "x-tenant-id"}

type AuthInterceptor struct {
	tokenManager security.TokenManager
}

func NewAuthInterceptor(tm security.TokenManager) *AuthInterceptor {
	return &AuthInterceptor{tokenManager: tm}
}

// Unary returns a server interceptor that verifies the bearer token and stores
// its claims in the context. A request without a usable token (missing,
// malformed, expired or not an access token) continues anonymously so that the
// workflow answers with its own sign-in envelope instead of a transport error.
func (i *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		ctx = stripIdentityHeaders(ctx)
		level := config.GetSecurityLevel(info.FullMethod)

		// Public endpoint - skip auth
		if level == config.SecurityPublic {
			return handler(ctx, req)
		}

		token, ok := extractToken(ctx)
		if !ok {
			return handler(ctx, req)
		}

		claims, err := i.tokenManager.ValidateToken(token)
		if err != nil {
			logger.WarnContext(ctx, "Ignoring unusable bearer token", "method", info.FullMethod, "error", err)
			return handler(ctx, req)
		}

		ctx = security.ContextWithClaims(ctx, claims)
		ctx = logger.WithTenant(ctx, claims.TenantID.String(), claims.Subject)
		return handler(ctx, req)
	}
}

func extractToken(ctx context.Context) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}

	authHeader := md["authorization"]
	if len(authHeader) == 0 {
		return "", false
	}

	token := strings.TrimSpace(authHeader[0])
	// Remove Bearer prefix if present
	if len(token) > 7 && strings.ToUpper(token[0:7]) == "BEARER " {
		token = strings.TrimSpace(token[7:])
	}
	return token, token != ""
}

// stripIdentityHeaders copies the incoming metadata without any header a
// client could use to assert an identity.
func stripIdentityHeaders(ctx context.Context) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}
	md = md.Copy()
	for _, h := range identityHeaders {
		md.Delete(h)
	}
	return metadata.NewIncomingContext(ctx, md)
}
