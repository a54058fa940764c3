package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/cristianortiz/lotsEngine/internal/shared/apperr"
	"github.com/cristianortiz/lotsEngine/internal/shared/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	HeaderAPIKey = "X-API-Key"

	principalKey = "principal"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrBadCredentials  = errors.New("invalid credentials")
	ErrAdminOnly       = errors.New("admin role required")
)

// Principal is the authenticated caller attached to the request.
type Principal struct {
	ID   uuid.UUID
	Role string
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// Resolver looks up principals for the credentials a request carries.
// Both methods return (nil, nil) when nothing matches.
type Resolver interface {
	PrincipalByID(ctx context.Context, id uuid.UUID) (*Principal, error)
	PrincipalByAPIKey(ctx context.Context, apiKey string) (*Principal, error)
}

type Middleware struct {
	resolver Resolver
	secret   []byte
}

func NewMiddleware(resolver Resolver, secret []byte) *Middleware {
	return &Middleware{resolver: resolver, secret: secret}
}

// Authenticate rejects requests without valid credentials.
func (m *Middleware) Authenticate(c *fiber.Ctx) error {
	p, err := m.resolve(c)
	if err != nil {
		return err
	}
	if p == nil {
		return apperr.Unauthenticated(ErrUnauthenticated)
	}
	c.Locals(principalKey, p)
	return c.Next()
}

// AllowAnonymous attaches the principal when credentials are present and
// lets anonymous requests through. Invalid credentials are still rejected.
func (m *Middleware) AllowAnonymous(c *fiber.Ctx) error {
	p, err := m.resolve(c)
	if err != nil {
		return err
	}
	if p != nil {
		c.Locals(principalKey, p)
	}
	return c.Next()
}

// AdminOnly must run after Authenticate.
func AdminOnly(c *fiber.Ctx) error {
	p, ok := PrincipalFromCtx(c)
	if !ok {
		return apperr.Unauthenticated(ErrUnauthenticated)
	}
	if !p.IsAdmin() {
		return apperr.NotAuthorized(ErrAdminOnly)
	}
	return c.Next()
}

func PrincipalFromCtx(c *fiber.Ctx) (*Principal, bool) {
	p, ok := c.Locals(principalKey).(*Principal)
	return p, ok && p != nil
}

func (m *Middleware) resolve(c *fiber.Ctx) (*Principal, error) {
	ctx := c.UserContext()

	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			return nil, apperr.Unauthenticated(ErrBadCredentials)
		}
		raw, err := GetUserIDFromToken(strings.TrimSpace(token), m.secret)
		if err != nil {
			return nil, apperr.Unauthenticated(err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperr.Unauthenticated(ErrInvalidToken)
		}
		p, err := m.resolver.PrincipalByID(ctx, id)
		if err != nil {
			log.Error("failed to resolve principal by id", zap.String("userID", raw), zap.Error(err))
			return nil, apperr.Internal(err)
		}
		if p == nil {
			return nil, apperr.Unauthenticated(ErrBadCredentials)
		}
		return p, nil
	}

	if key := strings.TrimSpace(c.Get(HeaderAPIKey)); key != "" {
		p, err := m.resolver.PrincipalByAPIKey(ctx, key)
		if err != nil {
			log.Error("failed to resolve principal by api key", zap.Error(err))
			return nil, apperr.Internal(err)
		}
		if p == nil {
			return nil, apperr.Unauthenticated(ErrBadCredentials)
		}
		return p, nil
	}

	return nil, nil
}
