package directory

import (
	"context"
	"errors"
	"regexp"

	"northstar/internal/domain"
	"northstar/internal/repo"
)

// Directory is the user directory the core reads from. The SQLite-backed
// Store is the default; tests substitute a map.
type Directory interface {
	Lookup(ctx context.Context, id string) (domain.User, error)
	ListAll(ctx context.Context) ([]domain.User, error)
}

var ErrUnknownUser = errors.New("unknown user")

// Store adapts the repository to the Directory interface.
type Store struct {
	Repo repo.Repo
}

func (s Store) Lookup(ctx context.Context, id string) (domain.User, error) {
	u, err := s.Repo.GetUser(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.User{}, ErrUnknownUser
	}
	return u, err
}

func (s Store) ListAll(ctx context.Context) ([]domain.User, error) {
	return s.Repo.ListUsers(ctx)
}

// EnrichedOwner is the single canonical owner shape the rest of the system
// works with once raw references are resolved.
type EnrichedOwner struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// DisplayNameFallback replaces names that would leak raw identifiers.
const DisplayNameFallback = "User"

var (
	numericName = regexp.MustCompile(`^[0-9]+$`)
	hexLikeName = regexp.MustCompile(`^[0-9a-fA-F]{8,}$`)
)

// Enrich resolves each owner reference against the directory. Directory
// fields win over whatever the reference carried; names that are empty,
// purely numeric, or look like raw hex ids collapse to the fallback label.
// The result always has the same length and order as the input.
func Enrich(ctx context.Context, dir Directory, refs []domain.OwnerRef) ([]EnrichedOwner, error) {
	out := make([]EnrichedOwner, 0, len(refs))
	for _, ref := range refs {
		owner := EnrichedOwner{
			UserID:    ref.UserID,
			Name:      ref.Name,
			AvatarURL: ref.AvatarURL,
		}
		if ref.UserID != "" {
			u, err := dir.Lookup(ctx, ref.UserID)
			switch {
			case err == nil:
				if u.Name != "" {
					owner.Name = u.Name
				}
				if u.AvatarURL != "" {
					owner.AvatarURL = u.AvatarURL
				}
			case errors.Is(err, ErrUnknownUser):
				// keep whatever the reference carried
			default:
				return nil, err
			}
		}
		owner.Name = SafeDisplayName(owner.Name)
		out = append(out, owner)
	}
	return out, nil
}

// SafeDisplayName applies the fallback rule to a resolved name.
func SafeDisplayName(name string) string {
	if name == "" || numericName.MatchString(name) || hexLikeName.MatchString(name) {
		return DisplayNameFallback
	}
	return name
}
