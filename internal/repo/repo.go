package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"northstar/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const objectiveColumns = `id,created_by,objective,COALESCE(description,''),category,owners_json,key_results_json,status,COALESCE(start_date,''),COALESCE(end_date,''),COALESCE(department,''),created_at,updated_at`

func (r Repo) InsertObjective(ctx context.Context, tx *sql.Tx, o domain.Objective) error {
	owners, err := json.Marshal(o.Owners)
	if err != nil {
		return fmt.Errorf("marshal owners: %w", err)
	}
	krs, err := marshalKeyResults(o.KeyResults)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO objectives(id,created_by,objective,description,category,owners_json,key_results_json,status,start_date,end_date,department,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		o.ID, o.CreatedBy, o.Text, nullable(o.Description), o.Category, string(owners), krs,
		o.Status, nullable(o.StartDate), nullable(o.EndDate), nullable(o.Department), o.CreatedAt, o.UpdatedAt)
	return err
}

func (r Repo) UpdateObjective(ctx context.Context, tx *sql.Tx, o domain.Objective) error {
	owners, err := json.Marshal(o.Owners)
	if err != nil {
		return fmt.Errorf("marshal owners: %w", err)
	}
	krs, err := marshalKeyResults(o.KeyResults)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE objectives SET objective=?, description=?, category=?, owners_json=?, key_results_json=?, status=?, start_date=?, end_date=?, department=?, updated_at=? WHERE id=?`,
		o.Text, nullable(o.Description), o.Category, string(owners), krs,
		o.Status, nullable(o.StartDate), nullable(o.EndDate), nullable(o.Department), o.UpdatedAt, o.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetObjective(ctx context.Context, id string) (domain.Objective, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+objectiveColumns+` FROM objectives WHERE id=?`, id)
	return scanObjectiveRow(row.Scan)
}

func (r Repo) GetObjectiveTx(ctx context.Context, tx *sql.Tx, id string) (domain.Objective, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+objectiveColumns+` FROM objectives WHERE id=?`, id)
	return scanObjectiveRow(row.Scan)
}

// ListObjectives returns every objective ordered by end date then creation
// time; visibility and query filtering happen in the engine, not in SQL.
func (r Repo) ListObjectives(ctx context.Context) ([]domain.Objective, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+objectiveColumns+` FROM objectives ORDER BY COALESCE(end_date,'') ASC, created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Objective
	for rows.Next() {
		o, err := scanObjectiveRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, o)
	}
	return res, rows.Err()
}

// PurgeObjective removes the row permanently. Guard checks live in the engine.
func (r Repo) PurgeObjective(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM objectives WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanObjectiveRow(scan func(dest ...any) error) (domain.Objective, error) {
	var o domain.Objective
	var owners string
	var krs sql.NullString
	err := scan(&o.ID, &o.CreatedBy, &o.Text, &o.Description, &o.Category, &owners, &krs,
		&o.Status, &o.StartDate, &o.EndDate, &o.Department, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return o, ErrNotFound
	}
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal([]byte(owners), &o.Owners); err != nil {
		return o, fmt.Errorf("decode owners for %s: %w", o.ID, err)
	}
	if krs.Valid && krs.String != "" {
		if err := json.Unmarshal([]byte(krs.String), &o.KeyResults); err != nil {
			return o, fmt.Errorf("decode key results for %s: %w", o.ID, err)
		}
	}
	return o, nil
}

func marshalKeyResults(krs []domain.KeyResult) (any, error) {
	if len(krs) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(krs)
	if err != nil {
		return nil, fmt.Errorf("marshal key results: %w", err)
	}
	return string(b), nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
