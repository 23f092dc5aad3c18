package engine

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/google/uuid"

	"northstar/internal/domain"
	"northstar/internal/engine/directory"
	"northstar/internal/events"
	"northstar/internal/notify"
)

// mentionPattern matches inline mentions of the form @[Display Name](userId).
var mentionPattern = regexp.MustCompile(`@\[([^\]]+)\]\(([^)]+)\)`)

// ExtractMentions returns the mentioned user ids in order of first
// occurrence, deduplicated.
func ExtractMentions(text string) []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, m := range mentionPattern.FindAllStringSubmatch(text, -1) {
		id := m[2]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// CreateComment stores a comment on an objective and fans out a mention
// notification to every mentioned user except the author. Notification rows
// land in the same transaction as the comment; external delivery happens
// after commit and never fails the call.
func (e Engine) CreateComment(ctx context.Context, objectiveID, actorID, text string) (domain.Comment, error) {
	if text == "" {
		return domain.Comment{}, validationf("comment text is required")
	}
	o, err := e.Repo.GetObjective(ctx, objectiveID)
	if err != nil {
		return domain.Comment{}, err
	}
	if o.Status == domain.StatusDeleted {
		return domain.Comment{}, validationf("cannot comment on a deleted objective")
	}
	now := e.now().UTC().Format(time.RFC3339)
	c := domain.Comment{
		ID:          uuid.New().String(),
		ObjectiveID: o.ID,
		AuthorID:    actorID,
		Text:        text,
		Mentions:    ExtractMentions(text),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	commenterName := e.displayName(ctx, actorID)

	var created []domain.Notification
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Comment{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertComment(ctx, tx, c); err != nil {
		return domain.Comment{}, err
	}
	for _, userID := range c.Mentions {
		if userID == actorID {
			continue
		}
		n := domain.Notification{
			ID:          uuid.New().String(),
			RecipientID: userID,
			Type:        domain.NotificationTypeMention,
			Title:       fmt.Sprintf("%s mentioned you", commenterName),
			Message:     fmt.Sprintf("%s mentioned you in a comment on %q", commenterName, o.Text),
			Payload: domain.NotificationPayload{
				ObjectiveID:    o.ID,
				ObjectiveTitle: o.Text,
				CommentID:      c.ID,
				CommentText:    c.Text,
				CommenterID:    actorID,
				CommenterName:  commenterName,
			},
			CreatedAt: now,
		}
		if err := e.Repo.InsertNotification(ctx, tx, n); err != nil {
			return domain.Comment{}, err
		}
		created = append(created, n)
	}
	if err := e.Events.Append(ctx, tx, "comment.created", "comment", c.ID, actorID, events.EventPayload{
		"objective_id": o.ID,
		"mentions":     len(c.Mentions),
	}); err != nil {
		return domain.Comment{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Comment{}, err
	}

	e.deliverMentions(ctx, created)
	return c, nil
}

// ListComments returns an objective's non-deleted comments oldest first.
func (e Engine) ListComments(ctx context.Context, objectiveID string) ([]domain.Comment, error) {
	if _, err := e.Repo.GetObjective(ctx, objectiveID); err != nil {
		return nil, err
	}
	return e.Repo.ListComments(ctx, objectiveID)
}

// DeleteComment soft-deletes a comment. Only its author may remove it.
func (e Engine) DeleteComment(ctx context.Context, commentID, actorID string) error {
	c, err := e.Repo.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if c.AuthorID != actorID {
		return validationf("only the comment author can delete it")
	}
	if c.Deleted {
		return nil
	}
	now := e.now().UTC().Format(time.RFC3339)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.SoftDeleteComment(ctx, tx, commentID, now); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "comment.deleted", "comment", commentID, actorID, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// deliverMentions pushes committed notifications through the external
// channel. Failures are logged and swallowed.
func (e Engine) deliverMentions(ctx context.Context, notifications []domain.Notification) {
	if e.Notifier == nil {
		return
	}
	for _, n := range notifications {
		u, err := e.Directory.Lookup(ctx, n.RecipientID)
		if err != nil || u.Email == "" {
			log.Printf("notify: no deliverable address for %s, keeping in-app only", n.RecipientID)
			continue
		}
		msg := notify.Message{
			Subject: n.Title,
			Body:    n.Message,
			Data: map[string]any{
				"objectiveId": n.Payload.ObjectiveID,
				"commentId":   n.Payload.CommentID,
			},
		}
		if err := e.Notifier.Send(ctx, u.Email, msg); err != nil {
			log.Printf("notify: delivery to %s failed: %v", n.RecipientID, err)
		}
	}
}

func (e Engine) displayName(ctx context.Context, userID string) string {
	u, err := e.Directory.Lookup(ctx, userID)
	if err != nil {
		return directory.DisplayNameFallback
	}
	return directory.SafeDisplayName(u.Name)
}
