package engine

import (
	"context"
	"time"

	"northstar/internal/config"
	"northstar/internal/domain"
	"northstar/internal/engine/auth"
	"northstar/internal/repo"
)

// ProvisionUser creates or updates a directory user. Admins may provision
// anyone; other actors may only update their own record, and anyone may
// bootstrap the very first user.
func (e Engine) ProvisionUser(ctx context.Context, actorID, id, name, email, avatarURL, role, department string) (domain.User, error) {
	if id == "" {
		return domain.User{}, validationf("user id is required")
	}
	if name == "" {
		return domain.User{}, validationf("user name is required")
	}
	if actorID != id {
		actorRole, err := e.Auth.ActorRole(ctx, actorID)
		if err != nil {
			return domain.User{}, err
		}
		if actorRole != auth.RoleAdmin {
			existing, err := e.Repo.ListUsers(ctx)
			if err != nil {
				return domain.User{}, err
			}
			if len(existing) > 0 {
				return domain.User{}, auth.ForbiddenError{Action: "provision user"}
			}
		}
	}
	u := domain.User{
		ID:         id,
		Name:       name,
		Email:      email,
		AvatarURL:  avatarURL,
		Role:       role,
		Department: department,
		CreatedAt:  e.now().UTC().Format(time.RFC3339),
	}
	if existing, err := e.Repo.GetUser(ctx, id); err == nil {
		u.CreatedAt = existing.CreatedAt
	}
	if err := e.Repo.UpsertUser(ctx, u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// SeedDirectory loads config-declared users and departments into the store.
// Existing rows are updated in place, so re-running is safe.
func (e Engine) SeedDirectory(ctx context.Context, cfg *config.Config) error {
	if cfg == nil {
		return nil
	}
	for _, d := range cfg.Directory.Departments {
		if err := e.Repo.UpsertDepartment(ctx, domain.Department{ID: d.ID, Name: d.Name}); err != nil {
			return err
		}
	}
	now := e.now().UTC().Format(time.RFC3339)
	for _, su := range cfg.Directory.Users {
		u := domain.User{
			ID:         su.ID,
			Name:       su.Name,
			Email:      su.Email,
			AvatarURL:  su.AvatarURL,
			Role:       su.Role,
			Department: su.Department,
			CreatedAt:  now,
		}
		if existing, err := e.Repo.GetUser(ctx, su.ID); err == nil {
			u.CreatedAt = existing.CreatedAt
		} else if err != repo.ErrNotFound {
			return err
		}
		if err := e.Repo.UpsertUser(ctx, u); err != nil {
			return err
		}
	}
	return nil
}
