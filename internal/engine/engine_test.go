package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"northstar/internal/config"
	"northstar/internal/db"
	"northstar/internal/domain"
	"northstar/internal/engine"
	"northstar/internal/migrate"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	eng := engine.New(conn, config.Default("org-1"))
	eng.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return testEnv{Engine: eng, Ctx: context.Background()}
}

func mustCreate(t *testing.T, env testEnv, opts engine.ObjectiveCreateOptions) domain.Objective {
	t.Helper()
	if opts.ActorID == "" {
		opts.ActorID = "tester"
	}
	o, err := env.Engine.CreateObjective(env.Ctx, opts)
	if err != nil {
		t.Fatalf("create objective: %v", err)
	}
	return o
}

func TestCreateObjectiveDefaults(t *testing.T) {
	env := newTestEnv(t)
	o := mustCreate(t, env, engine.ObjectiveCreateOptions{
		Text:     "Ship the beta",
		Category: domain.CategoryTeam,
		Owners:   []domain.OwnerRef{{UserID: "u1"}, {UserID: "u2"}},
		Status:   "nonsense",
	})
	if o.Status != domain.StatusActive {
		t.Fatalf("unrecognized status should coerce to active, got %q", o.Status)
	}
	if o.ID == "" || o.CreatedAt == "" {
		t.Fatalf("expected generated id and timestamps")
	}
	if len(o.Owners) != 2 {
		t.Fatalf("team objective keeps all owners, got %d", len(o.Owners))
	}
}

func TestIndividualObjectiveKeepsOneOwner(t *testing.T) {
	env := newTestEnv(t)
	o := mustCreate(t, env, engine.ObjectiveCreateOptions{
		Text:     "Run a marathon",
		Category: domain.CategoryIndividual,
		Owners:   []domain.OwnerRef{{UserID: "u1"}, {UserID: "u2"}, {UserID: "u3"}},
	})
	if len(o.Owners) != 1 || o.Owners[0].UserID != "u1" {
		t.Fatalf("individual objective must keep exactly the first owner, got %+v", o.Owners)
	}

	// narrowing a team objective to individual also truncates
	team := mustCreate(t, env, engine.ObjectiveCreateOptions{
		Text:     "Team goal",
		Category: domain.CategoryTeam,
		Owners:   []domain.OwnerRef{{UserID: "a"}, {UserID: "b"}},
	})
	cat := domain.CategoryIndividual
	upd, err := env.Engine.UpdateObjective(env.Ctx, team.ID, engine.ObjectiveUpdate{Category: &cat}, "tester")
	if err != nil {
		t.Fatalf("narrow category: %v", err)
	}
	if len(upd.Owners) != 1 || upd.Owners[0].UserID != "a" {
		t.Fatalf("narrowed objective must keep first owner, got %+v", upd.Owners)
	}
}

func TestCreateObjectiveValidation(t *testing.T) {
	env := newTestEnv(t)
	cases := []struct {
		name string
		opts engine.ObjectiveCreateOptions
	}{
		{"missing text", engine.ObjectiveCreateOptions{Category: domain.CategoryTeam, Owners: []domain.OwnerRef{{UserID: "u1"}}, ActorID: "t"}},
		{"bad category", engine.ObjectiveCreateOptions{Text: "x", Category: "squad", Owners: []domain.OwnerRef{{UserID: "u1"}}, ActorID: "t"}},
		{"no owners", engine.ObjectiveCreateOptions{Text: "x", Category: domain.CategoryTeam, ActorID: "t"}},
		{"owner without id", engine.ObjectiveCreateOptions{Text: "x", Category: domain.CategoryTeam, Owners: []domain.OwnerRef{{Name: "ghost"}}, ActorID: "t"}},
		{"bad key result type", engine.ObjectiveCreateOptions{Text: "x", Category: domain.CategoryTeam, Owners: []domain.OwnerRef{{UserID: "u1"}}, KeyResults: []domain.KeyResult{{Type: "boolean"}}, ActorID: "t"}},
	}
	for _, tc := range cases {
		_, err := env.Engine.CreateObjective(env.Ctx, tc.opts)
		var ve engine.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestUpdateObjectiveNoChange(t *testing.T) {
	env := newTestEnv(t)
	o := mustCreate(t, env, engine.ObjectiveCreateOptions{
		Text:     "Hold steady",
		Category: domain.CategoryTeam,
		Owners:   []domain.OwnerRef{{UserID: "u1"}},
	})
	same := o.Text
	_, err := env.Engine.UpdateObjective(env.Ctx, o.ID, engine.ObjectiveUpdate{Text: &same}, "tester")
	var nce engine.NoChangeError
	if !errors.As(err, &nce) {
		t.Fatalf("expected no-change error, got %v", err)
	}
}

func TestUpdateObjectiveUnknownStatus(t *testing.T) {
	env := newTestEnv(t)
	o := mustCreate(t, env, engine.ObjectiveCreateOptions{
		Text:     "Status check",
		Category: domain.CategoryTeam,
		Owners:   []domain.OwnerRef{{UserID: "u1"}},
	})
	bad := "paused"
	_, err := env.Engine.UpdateObjective(env.Ctx, o.ID, engine.ObjectiveUpdate{Status: &bad}, "tester")
	var ve engine.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
	good := domain.StatusAtRisk
	upd, err := env.Engine.UpdateObjective(env.Ctx, o.ID, engine.ObjectiveUpdate{Status: &good}, "tester")
	if err != nil || upd.Status != domain.StatusAtRisk {
		t.Fatalf("expected at_risk, got %q err %v", upd.Status, err)
	}
}

func TestUpdateRequiresEditRights(t *testing.T) {
	env := newTestEnv(t)
	o := mustCreate(t, env, engine.ObjectiveCreateOptions{
		Text:     "Locked down",
		Category: domain.CategoryTeam,
		Owners:   []domain.OwnerRef{{UserID: "owner-1"}},
		ActorID:  "creator-1",
	})
	text := "hijacked"
	if _, err := env.Engine.UpdateObjective(env.Ctx, o.ID, engine.ObjectiveUpdate{Text: &text}, "stranger"); err == nil {
		t.Fatalf("expected forbidden for non-owner non-creator")
	}
	if _, err := env.Engine.UpdateObjective(env.Ctx, o.ID, engine.ObjectiveUpdate{Text: &text}, "owner-1"); err != nil {
		t.Fatalf("owner should be allowed: %v", err)
	}

	// admins can edit anything
	if err := env.Engine.Repo.UpsertUser(env.Ctx, domain.User{ID: "boss", Name: "Boss", Role: "admin", CreatedAt: "2024-01-01T00:00:00Z"}); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	text2 := "renamed by admin"
	if _, err := env.Engine.UpdateObjective(env.Ctx, o.ID, engine.ObjectiveUpdate{Text: &text2}, "boss"); err != nil {
		t.Fatalf("admin should be allowed: %v", err)
	}
}

func TestArchiveRestoreCycle(t *testing.T) {
	env := newTestEnv(t)
	o := mustCreate(t, env, engine.ObjectiveCreateOptions{
		Text:     "Wrap up",
		Category: domain.CategoryTeam,
		Owners:   []domain.OwnerRef{{UserID: "u1"}},
	})
	archived, err := env.Engine.ArchiveObjective(env.Ctx, o.ID, "tester")
	if err != nil || archived.Status != domain.StatusArchived {
		t.Fatalf("archive: %v status %q", err, archived.Status)
	}
	if _, err := env.Engine.ArchiveObjective(env.Ctx, o.ID, "tester"); err == nil {
		t.Fatalf("expected no-change on double archive")
	}
	restored, err := env.Engine.RestoreObjective(env.Ctx, o.ID, "tester")
	if err != nil || restored.Status != domain.StatusActive {
		t.Fatalf("restore: %v status %q", err, restored.Status)
	}
	if _, err := env.Engine.RestoreObjective(env.Ctx, o.ID, "tester"); err == nil {
		t.Fatalf("expected error restoring an active objective")
	}
}

func TestSoftDeleteIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	o := mustCreate(t, env, engine.ObjectiveCreateOptions{
		Text:     "Going away",
		Category: domain.CategoryTeam,
		Owners:   []domain.OwnerRef{{UserID: "u1"}},
	})
	first, err := env.Engine.SoftDeleteObjective(env.Ctx, o.ID, "tester")
	if err != nil || first.Status != domain.StatusDeleted {
		t.Fatalf("soft delete: %v status %q", err, first.Status)
	}
	second, err := env.Engine.SoftDeleteObjective(env.Ctx, o.ID, "tester")
	if err != nil {
		t.Fatalf("second soft delete must succeed: %v", err)
	}
	if second.UpdatedAt != first.UpdatedAt {
		t.Fatalf("second soft delete must not touch the record")
	}
}

func TestPurgeGuard(t *testing.T) {
	env := newTestEnv(t)
	o := mustCreate(t, env, engine.ObjectiveCreateOptions{
		Text:     "Purge me carefully",
		Category: domain.CategoryTeam,
		Owners:   []domain.OwnerRef{{UserID: "u1"}},
	})
	err := env.Engine.PurgeObjective(env.Ctx, o.ID, "tester")
	var ge engine.GuardViolationError
	if !errors.As(err, &ge) {
		t.Fatalf("purge of non-deleted objective must be a guard violation, got %v", err)
	}
	// record unchanged
	got, err := env.Engine.GetObjective(env.Ctx, o.ID)
	if err != nil || got.Status != domain.StatusActive {
		t.Fatalf("guarded purge must leave record intact: %v status %q", err, got.Status)
	}

	if _, err := env.Engine.SoftDeleteObjective(env.Ctx, o.ID, "tester"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if err := env.Engine.PurgeObjective(env.Ctx, o.ID, "tester"); err != nil {
		t.Fatalf("purge after soft delete: %v", err)
	}
	if _, err := env.Engine.GetObjective(env.Ctx, o.ID); !engine.IsNotFound(err) {
		t.Fatalf("expected not found after purge, got %v", err)
	}
}

func TestRestoreFromDeleted(t *testing.T) {
	env := newTestEnv(t)
	o := mustCreate(t, env, engine.ObjectiveCreateOptions{
		Text:     "Second chance",
		Category: domain.CategoryTeam,
		Owners:   []domain.OwnerRef{{UserID: "u1"}},
	})
	if _, err := env.Engine.SoftDeleteObjective(env.Ctx, o.ID, "tester"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	restored, err := env.Engine.RestoreObjective(env.Ctx, o.ID, "tester")
	if err != nil || restored.Status != domain.StatusActive {
		t.Fatalf("restore from deleted: %v status %q", err, restored.Status)
	}
}

func TestArchiveDeletedObjectiveFails(t *testing.T) {
	env := newTestEnv(t)
	o := mustCreate(t, env, engine.ObjectiveCreateOptions{
		Text:     "No archive after delete",
		Category: domain.CategoryTeam,
		Owners:   []domain.OwnerRef{{UserID: "u1"}},
	})
	if _, err := env.Engine.SoftDeleteObjective(env.Ctx, o.ID, "tester"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := env.Engine.ArchiveObjective(env.Ctx, o.ID, "tester"); err == nil {
		t.Fatalf("archiving a deleted objective must fail")
	}
}

func TestEventLogRecordsLifecycle(t *testing.T) {
	env := newTestEnv(t)
	o := mustCreate(t, env, engine.ObjectiveCreateOptions{
		Text:     "Audited",
		Category: domain.CategoryTeam,
		Owners:   []domain.OwnerRef{{UserID: "u1"}},
	})
	if _, err := env.Engine.ArchiveObjective(env.Ctx, o.ID, "tester"); err != nil {
		t.Fatalf("archive: %v", err)
	}
	events, err := env.Engine.Repo.LatestEvents(env.Ctx, 10, "", "objective", o.ID)
	if err != nil {
		t.Fatalf("latest events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected create+archive events, got %d", len(events))
	}
	if events[0].Type != "objective.archived" || events[1].Type != "objective.created" {
		t.Fatalf("unexpected event order: %s, %s", events[0].Type, events[1].Type)
	}
}
