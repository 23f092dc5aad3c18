package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"northstar/internal/domain"
)

func (r Repo) InsertNotification(ctx context.Context, tx *sql.Tx, n domain.Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO notifications(id,recipient_id,type,title,message,payload_json,read,read_at,deleted,created_at) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		n.ID, n.RecipientID, n.Type, n.Title, n.Message, string(payload), boolToInt(n.Read), nullableStringPtr(n.ReadAt), boolToInt(n.Deleted), n.CreatedAt)
	return err
}

// ListNotifications returns the recipient's newest non-deleted notifications,
// capped at limit.
func (r Repo) ListNotifications(ctx context.Context, recipientID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT id,recipient_id,type,title,message,payload_json,read,read_at,deleted,created_at FROM notifications
WHERE recipient_id=? AND deleted=0 ORDER BY created_at DESC, id DESC LIMIT ?`, recipientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, n)
	}
	return res, rows.Err()
}

func (r Repo) CountUnreadNotifications(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM notifications WHERE recipient_id=? AND deleted=0 AND read=0`, recipientID).Scan(&count)
	return count, err
}

// MarkNotificationsRead marks the given ids read for the recipient; ids owned
// by other recipients are left untouched. An empty id list marks everything
// currently unread. Returns the number of rows updated.
func (r Repo) MarkNotificationsRead(ctx context.Context, tx *sql.Tx, recipientID string, ids []string, readAt string) (int64, error) {
	if len(ids) == 0 {
		res, err := tx.ExecContext(ctx, `UPDATE notifications SET read=1, read_at=? WHERE recipient_id=? AND deleted=0 AND read=0`, readAt, recipientID)
		if err != nil {
			return 0, err
		}
		n, _ := res.RowsAffected()
		return n, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := []any{readAt, recipientID}
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := tx.ExecContext(ctx, `UPDATE notifications SET read=1, read_at=? WHERE recipient_id=? AND read=0 AND id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r Repo) GetNotification(ctx context.Context, id string) (domain.Notification, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT id,recipient_id,type,title,message,payload_json,read,read_at,deleted,created_at FROM notifications WHERE id=?`, id)
	return scanNotification(row.Scan)
}

func scanNotification(scan func(dest ...any) error) (domain.Notification, error) {
	var n domain.Notification
	var payload sql.NullString
	var readAt sql.NullString
	var read, deleted int
	err := scan(&n.ID, &n.RecipientID, &n.Type, &n.Title, &n.Message, &payload, &read, &readAt, &deleted, &n.CreatedAt)
	if err == sql.ErrNoRows {
		return n, ErrNotFound
	}
	if err != nil {
		return n, err
	}
	n.Read = read != 0
	n.Deleted = deleted != 0
	if readAt.Valid {
		n.ReadAt = &readAt.String
	}
	if payload.Valid && payload.String != "" {
		if err := json.Unmarshal([]byte(payload.String), &n.Payload); err != nil {
			return n, fmt.Errorf("decode notification payload for %s: %w", n.ID, err)
		}
	}
	return n, nil
}

func nullableStringPtr(v *string) any {
	if v == nil || *v == "" {
		return nil
	}
	return *v
}
