package auth

import (
	"context"
	"database/sql"
	"fmt"

	"northstar/internal/domain"
)

// ForbiddenError indicates the actor lacks rights over a found record.
type ForbiddenError struct {
	Action string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("actor not permitted to %s", e.Action)
}

const RoleAdmin = "admin"

// Service answers edit-rights questions against the user directory.
type Service struct {
	DB *sql.DB
}

// ActorRole returns the stored role for an actor, empty when the actor is not
// in the directory.
func (s Service) ActorRole(ctx context.Context, actorID string) (string, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT COALESCE(role,'') FROM users WHERE id=?`, actorID)
	var role string
	err := row.Scan(&role)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return role, err
}

// CanEdit reports whether the actor may mutate the objective: the creator and
// every owner always may; admins may regardless of category.
func (s Service) CanEdit(ctx context.Context, actorID string, o domain.Objective) (bool, error) {
	if actorID == "" {
		return false, nil
	}
	if o.CreatedBy == actorID {
		return true, nil
	}
	for _, owner := range o.Owners {
		if owner.UserID == actorID {
			return true, nil
		}
	}
	role, err := s.ActorRole(ctx, actorID)
	if err != nil {
		return false, err
	}
	return role == RoleAdmin, nil
}
