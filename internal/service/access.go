package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/repo"
)

type AccessService struct {
	Repo *repo.GormRepo
}

// ResolveIsAdmin reads the role table. Malformed ids are simply not admins.
func (s *AccessService) ResolveIsAdmin(ctx context.Context, userID string) (bool, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return false, nil
	}
	return s.Repo.IsAdmin(ctx, uid)
}
