package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"northstar/internal/domain"
)

func (r Repo) InsertComment(ctx context.Context, tx *sql.Tx, c domain.Comment) error {
	mentions, err := marshalMentions(c.Mentions)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO comments(id,objective_id,author_id,body,mentions_json,deleted,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?)`,
		c.ID, c.ObjectiveID, c.AuthorID, c.Text, mentions, boolToInt(c.Deleted), c.CreatedAt, c.UpdatedAt)
	return err
}

func (r Repo) GetComment(ctx context.Context, id string) (domain.Comment, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT id,objective_id,author_id,body,mentions_json,deleted,created_at,updated_at FROM comments WHERE id=?`, id)
	return scanComment(row.Scan)
}

// ListComments returns an objective's non-deleted comments oldest first.
func (r Repo) ListComments(ctx context.Context, objectiveID string) ([]domain.Comment, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,objective_id,author_id,body,mentions_json,deleted,created_at,updated_at FROM comments WHERE objective_id=? AND deleted=0 ORDER BY created_at ASC, id ASC`, objectiveID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Comment
	for rows.Next() {
		c, err := scanComment(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r Repo) SoftDeleteComment(ctx context.Context, tx *sql.Tx, id, updatedAt string) error {
	res, err := tx.ExecContext(ctx, `UPDATE comments SET deleted=1, updated_at=? WHERE id=?`, updatedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanComment(scan func(dest ...any) error) (domain.Comment, error) {
	var c domain.Comment
	var mentions sql.NullString
	var deleted int
	err := scan(&c.ID, &c.ObjectiveID, &c.AuthorID, &c.Text, &mentions, &deleted, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	if err != nil {
		return c, err
	}
	c.Deleted = deleted != 0
	if mentions.Valid && mentions.String != "" {
		if err := json.Unmarshal([]byte(mentions.String), &c.Mentions); err != nil {
			return c, fmt.Errorf("decode mentions for %s: %w", c.ID, err)
		}
	}
	return c, nil
}

func marshalMentions(in []string) (any, error) {
	if len(in) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal mentions: %w", err)
	}
	return string(b), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
