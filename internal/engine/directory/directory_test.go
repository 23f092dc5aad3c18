package directory_test

import (
	"context"
	"testing"

	"northstar/internal/domain"
	"northstar/internal/engine/directory"
)

type mapDirectory map[string]domain.User

func (m mapDirectory) Lookup(_ context.Context, id string) (domain.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return domain.User{}, directory.ErrUnknownUser
}

func (m mapDirectory) ListAll(context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, u := range m {
		out = append(out, u)
	}
	return out, nil
}

func TestEnrichPrefersDirectoryFields(t *testing.T) {
	dir := mapDirectory{
		"u1": {ID: "u1", Name: "Alice", AvatarURL: "https://cdn/a.png"},
	}
	got, err := directory.Enrich(context.Background(), dir, []domain.OwnerRef{
		{UserID: "u1", Name: "stale name", AvatarURL: "https://old"},
	})
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Alice" || got[0].AvatarURL != "https://cdn/a.png" {
		t.Fatalf("directory fields must win: %+v", got)
	}
}

func TestEnrichKeepsRefFieldsForUnknownUser(t *testing.T) {
	got, err := directory.Enrich(context.Background(), mapDirectory{}, []domain.OwnerRef{
		{UserID: "ghost", Name: "Carried Name"},
	})
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Carried Name" || got[0].UserID != "ghost" {
		t.Fatalf("unknown user keeps ref fields: %+v", got)
	}
}

func TestEnrichFallbackName(t *testing.T) {
	cases := map[string]string{
		"":               "User",
		"1234567":        "User",
		"60b8d295f1a2c3": "User",
		"Alice":          "Alice",
		"bob":            "bob", // short and not hex-length
		"Jean-Luc":       "Jean-Luc",
	}
	for in, want := range cases {
		if got := directory.SafeDisplayName(in); got != want {
			t.Errorf("SafeDisplayName(%q) = %q, want %q", in, got, want)
		}
	}

	got, err := directory.Enrich(context.Background(), mapDirectory{
		"u1": {ID: "u1", Name: "60b8d295f1a2c3"},
	}, []domain.OwnerRef{{UserID: "u1"}})
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if got[0].Name != directory.DisplayNameFallback {
		t.Fatalf("hex-like directory name collapses to fallback, got %q", got[0].Name)
	}
}

func TestEnrichPreservesOrderAndLength(t *testing.T) {
	dir := mapDirectory{"u2": {ID: "u2", Name: "Bob"}}
	refs := []domain.OwnerRef{{UserID: "u3"}, {UserID: "u2"}, {UserID: "u1"}}
	got, err := directory.Enrich(context.Background(), dir, refs)
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if len(got) != 3 || got[0].UserID != "u3" || got[1].UserID != "u2" || got[2].UserID != "u1" {
		t.Fatalf("order must follow input: %+v", got)
	}

	empty, err := directory.Enrich(context.Background(), dir, nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty input yields empty output: %v %v", empty, err)
	}
}
