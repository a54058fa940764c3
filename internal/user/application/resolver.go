package application

import (
	"context"
	"errors"

	"github.com/cristianortiz/lotsEngine/internal/shared/auth"
	"github.com/cristianortiz/lotsEngine/internal/user/domain"
	"github.com/google/uuid"
)

// Resolver looks callers up for the auth middleware.
type Resolver struct {
	repo domain.UserRepository
}

func NewResolver(repo domain.UserRepository) *Resolver {
	return &Resolver{repo: repo}
}

func (r *Resolver) PrincipalByID(ctx context.Context, id uuid.UUID) (*auth.Principal, error) {
	return principal(r.repo.GetByID(ctx, id))
}

func (r *Resolver) PrincipalByAPIKey(ctx context.Context, apiKey string) (*auth.Principal, error) {
	return principal(r.repo.GetByAPIKey(ctx, apiKey))
}

func principal(user *domain.User, err error) (*auth.Principal, error) {
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	role := auth.RoleUser
	if user.IsAdmin() {
		role = auth.RoleAdmin
	}
	return &auth.Principal{ID: user.ID, Role: role}, nil
}
