package engine_test

import (
	"reflect"
	"testing"

	"northstar/internal/domain"
	"northstar/internal/engine"
)

func TestExtractMentions(t *testing.T) {
	got := engine.ExtractMentions("@[Alice](u1) hi @[Bob](u2) @[Alice](u1)")
	want := []string{"u1", "u2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}
	if got := engine.ExtractMentions("no mentions here"); len(got) != 0 {
		t.Fatalf("expected none, got %v", got)
	}
	// unbalanced or partial forms never match
	if got := engine.ExtractMentions("@[Alice] (u1) @Alice(u1) [Bob](u2)"); len(got) != 0 {
		t.Fatalf("expected none, got %v", got)
	}
}

func TestCommentFanOutSkipsAuthor(t *testing.T) {
	env := newTestEnv(t)
	o := mustCreate(t, env, engine.ObjectiveCreateOptions{
		Text:     "Discussed goal",
		Category: domain.CategoryTeam,
		Owners:   []domain.OwnerRef{{UserID: "u1"}},
		ActorID:  "u1",
	})
	c, err := env.Engine.CreateComment(env.Ctx, o.ID, "u1", "heads up @[Me](u1) and @[Bob](u2)")
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if !reflect.DeepEqual(c.Mentions, []string{"u1", "u2"}) {
		t.Fatalf("stored mentions: %v", c.Mentions)
	}

	// only the other user gets a notification
	if n, err := env.Engine.ListNotifications(env.Ctx, "u1"); err != nil || len(n) != 0 {
		t.Fatalf("author must not be notified: %v %v", n, err)
	}
	got, err := env.Engine.ListNotifications(env.Ctx, "u2")
	if err != nil || len(got) != 1 {
		t.Fatalf("expected one notification for u2, got %d err %v", len(got), err)
	}
	n := got[0]
	if n.Type != domain.NotificationTypeMention || n.Payload.CommentID != c.ID || n.Payload.ObjectiveID != o.ID {
		t.Fatalf("unexpected notification %+v", n)
	}
	if n.Payload.CommenterName != "User" {
		t.Fatalf("unknown commenter collapses to fallback, got %q", n.Payload.CommenterName)
	}
}

func TestCommentUsesDirectoryName(t *testing.T) {
	env := newTestEnv(t)
	if err := env.Engine.Repo.UpsertUser(env.Ctx, domain.User{ID: "u1", Name: "Alice", CreatedAt: "2024-01-01T00:00:00Z"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	o := mustCreate(t, env, engine.ObjectiveCreateOptions{
		Text:     "Named goal",
		Category: domain.CategoryTeam,
		Owners:   []domain.OwnerRef{{UserID: "u1"}},
		ActorID:  "u1",
	})
	if _, err := env.Engine.CreateComment(env.Ctx, o.ID, "u1", "ping @[Bob](u2)"); err != nil {
		t.Fatalf("create comment: %v", err)
	}
	got, err := env.Engine.ListNotifications(env.Ctx, "u2")
	if err != nil || len(got) != 1 {
		t.Fatalf("expected one notification, got %d err %v", len(got), err)
	}
	if got[0].Payload.CommenterName != "Alice" {
		t.Fatalf("commenter name should come from the directory, got %q", got[0].Payload.CommenterName)
	}
}

func TestCommentOnDeletedObjectiveFails(t *testing.T) {
	env := newTestEnv(t)
	o := mustCreate(t, env, engine.ObjectiveCreateOptions{
		Text:     "Gone",
		Category: domain.CategoryTeam,
		Owners:   []domain.OwnerRef{{UserID: "u1"}},
	})
	if _, err := env.Engine.SoftDeleteObjective(env.Ctx, o.ID, "tester"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := env.Engine.CreateComment(env.Ctx, o.ID, "u1", "anyone home?"); err == nil {
		t.Fatalf("commenting on a deleted objective must fail")
	}
}

func TestDeleteCommentAuthorOnly(t *testing.T) {
	env := newTestEnv(t)
	o := mustCreate(t, env, engine.ObjectiveCreateOptions{
		Text:     "Thread",
		Category: domain.CategoryTeam,
		Owners:   []domain.OwnerRef{{UserID: "u1"}},
	})
	c, err := env.Engine.CreateComment(env.Ctx, o.ID, "u1", "first")
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if err := env.Engine.DeleteComment(env.Ctx, c.ID, "u2"); err == nil {
		t.Fatalf("only the author may delete")
	}
	if err := env.Engine.DeleteComment(env.Ctx, c.ID, "u1"); err != nil {
		t.Fatalf("author delete: %v", err)
	}
	items, err := env.Engine.ListComments(env.Ctx, o.ID)
	if err != nil || len(items) != 0 {
		t.Fatalf("deleted comment should be hidden, got %d err %v", len(items), err)
	}
}

func TestMarkNotificationsReadScoping(t *testing.T) {
	env := newTestEnv(t)
	o := mustCreate(t, env, engine.ObjectiveCreateOptions{
		Text:     "Shared goal",
		Category: domain.CategoryTeam,
		Owners:   []domain.OwnerRef{{UserID: "u1"}},
		ActorID:  "u1",
	})
	if _, err := env.Engine.CreateComment(env.Ctx, o.ID, "u1", "@[Bob](u2) @[Carol](u3)"); err != nil {
		t.Fatalf("create comment: %v", err)
	}

	bobs, err := env.Engine.ListNotifications(env.Ctx, "u2")
	if err != nil || len(bobs) != 1 {
		t.Fatalf("bob notifications: %d err %v", len(bobs), err)
	}
	// carol cannot mark bob's notification read
	n, err := env.Engine.MarkNotificationsRead(env.Ctx, "u3", []string{bobs[0].ID})
	if err != nil || n != 0 {
		t.Fatalf("cross-recipient mark must be a no-op, updated %d err %v", n, err)
	}
	if count, _ := env.Engine.UnreadCount(env.Ctx, "u2"); count != 1 {
		t.Fatalf("bob still unread, got %d", count)
	}

	// bob marks everything read with an empty id list
	n, err = env.Engine.MarkNotificationsRead(env.Ctx, "u2", nil)
	if err != nil || n != 1 {
		t.Fatalf("mark all read: updated %d err %v", n, err)
	}
	if count, _ := env.Engine.UnreadCount(env.Ctx, "u2"); count != 0 {
		t.Fatalf("expected zero unread, got %d", count)
	}
	got, _ := env.Engine.ListNotifications(env.Ctx, "u2")
	if len(got) != 1 || !got[0].Read || got[0].ReadAt == nil {
		t.Fatalf("read flag and timestamp should be set: %+v", got)
	}
}
