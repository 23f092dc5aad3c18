package engine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"northstar/internal/config"
	"northstar/internal/domain"
	"northstar/internal/engine/auth"
	"northstar/internal/engine/directory"
	"northstar/internal/events"
	"northstar/internal/notify"
	"northstar/internal/repo"
)

type Engine struct {
	DB        *sql.DB
	Repo      repo.Repo
	Events    events.Writer
	Auth      auth.Service
	Directory directory.Directory
	Notifier  notify.Notifier
	Config    *config.Config
	Now       func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	r := repo.Repo{DB: db}
	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg != nil && len(cfg.Notifier.Targets) > 0 {
		notifier = notify.NewHTTP(cfg.Notifier.Targets)
	}
	return Engine{
		DB:        db,
		Repo:      r,
		Events:    events.Writer{DB: db},
		Auth:      auth.Service{DB: db},
		Directory: directory.Store{Repo: r},
		Notifier:  notifier,
		Config:    cfg,
		Now:       time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// ObjectiveCreateOptions are parameters for creating an objective.
type ObjectiveCreateOptions struct {
	ID          string
	Text        string
	Description string
	Category    string
	Owners      []domain.OwnerRef
	KeyResults  []domain.KeyResult
	Status      string
	StartDate   string
	EndDate     string
	Department  string
	ActorID     string
}

func (e Engine) CreateObjective(ctx context.Context, opts ObjectiveCreateOptions) (domain.Objective, error) {
	if opts.Text == "" {
		return domain.Objective{}, validationf("objective text is required")
	}
	if !domain.IsValidCategory(opts.Category) {
		return domain.Objective{}, validationf("category must be %s or %s", domain.CategoryIndividual, domain.CategoryTeam)
	}
	owners, err := normalizeOwners(opts.Category, opts.Owners)
	if err != nil {
		return domain.Objective{}, err
	}
	krs, err := normalizeKeyResults(opts.KeyResults)
	if err != nil {
		return domain.Objective{}, err
	}
	// An unrecognized initial status falls back to active; only dedicated
	// transitions reach archived or deleted.
	status := domain.StatusActive
	if domain.IsLiveStatus(opts.Status) {
		status = opts.Status
	}
	now := e.now().UTC().Format(time.RFC3339)
	id := opts.ID
	if id == "" {
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(opts.ActorID+"|"+opts.Text+"|"+now)).String()
	}
	o := domain.Objective{
		ID:          id,
		CreatedBy:   opts.ActorID,
		Text:        opts.Text,
		Description: opts.Description,
		Category:    opts.Category,
		Owners:      owners,
		KeyResults:  krs,
		Status:      status,
		StartDate:   opts.StartDate,
		EndDate:     opts.EndDate,
		Department:  opts.Department,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Objective{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertObjective(ctx, tx, o); err != nil {
		return domain.Objective{}, err
	}
	if err := e.Events.Append(ctx, tx, "objective.created", "objective", o.ID, opts.ActorID, events.EventPayload{
		"status":   o.Status,
		"category": o.Category,
	}); err != nil {
		return domain.Objective{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Objective{}, err
	}
	return o, nil
}

func (e Engine) GetObjective(ctx context.Context, id string) (domain.Objective, error) {
	return e.Repo.GetObjective(ctx, id)
}

// ObjectiveUpdate carries the allowlisted partial field set for updates.
// Identifier and bookkeeping fields are deliberately absent.
type ObjectiveUpdate struct {
	Text               *string
	Description        *string
	Category           *string
	Owners             []domain.OwnerRef
	OwnersProvided     bool
	KeyResults         []domain.KeyResult
	KeyResultsProvided bool
	Status             *string
	StartDate          *string
	EndDate            *string
	Department         *string
}

func (e Engine) UpdateObjective(ctx context.Context, id string, upd ObjectiveUpdate, actorID string) (domain.Objective, error) {
	o, err := e.Repo.GetObjective(ctx, id)
	if err != nil {
		return o, err
	}
	if err := e.requireEdit(ctx, actorID, o, "update objective"); err != nil {
		return o, err
	}
	changed := false
	if upd.Text != nil && *upd.Text != o.Text {
		if *upd.Text == "" {
			return o, validationf("objective text cannot be empty")
		}
		o.Text = *upd.Text
		changed = true
	}
	if upd.Description != nil && *upd.Description != o.Description {
		o.Description = *upd.Description
		changed = true
	}
	if upd.Category != nil && *upd.Category != o.Category {
		if !domain.IsValidCategory(*upd.Category) {
			return o, validationf("category must be %s or %s", domain.CategoryIndividual, domain.CategoryTeam)
		}
		o.Category = *upd.Category
		changed = true
	}
	if upd.OwnersProvided {
		owners, err := normalizeOwners(o.Category, upd.Owners)
		if err != nil {
			return o, err
		}
		if !sameOwners(o.Owners, owners) {
			o.Owners = owners
			changed = true
		}
	} else if o.Category == domain.CategoryIndividual && len(o.Owners) > 1 {
		// category narrowed to individual without new owners: keep the first
		o.Owners = o.Owners[:1]
		changed = true
	}
	if upd.KeyResultsProvided {
		krs, err := normalizeKeyResults(upd.KeyResults)
		if err != nil {
			return o, err
		}
		o.KeyResults = krs
		changed = true
	}
	if upd.Status != nil && *upd.Status != o.Status {
		if !domain.IsValidStatus(*upd.Status) {
			return o, validationf("unknown status %q", *upd.Status)
		}
		o.Status = *upd.Status
		changed = true
	}
	if upd.StartDate != nil && *upd.StartDate != o.StartDate {
		o.StartDate = *upd.StartDate
		changed = true
	}
	if upd.EndDate != nil && *upd.EndDate != o.EndDate {
		o.EndDate = *upd.EndDate
		changed = true
	}
	if upd.Department != nil && *upd.Department != o.Department {
		o.Department = *upd.Department
		changed = true
	}
	if !changed {
		return o, NoChangeError{Msg: "update produced no change"}
	}
	o.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	return o, e.saveTransition(ctx, o, actorID, "objective.updated", events.EventPayload{"status": o.Status})
}

// ArchiveObjective moves a live objective to archived.
func (e Engine) ArchiveObjective(ctx context.Context, id, actorID string) (domain.Objective, error) {
	o, err := e.Repo.GetObjective(ctx, id)
	if err != nil {
		return o, err
	}
	if err := e.requireEdit(ctx, actorID, o, "archive objective"); err != nil {
		return o, err
	}
	switch {
	case o.Status == domain.StatusArchived:
		return o, NoChangeError{Msg: "objective already archived"}
	case o.Status == domain.StatusDeleted:
		return o, validationf("cannot archive a deleted objective")
	}
	o.Status = domain.StatusArchived
	o.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	return o, e.saveTransition(ctx, o, actorID, "objective.archived", nil)
}

// RestoreObjective moves an archived or soft-deleted objective back to active.
func (e Engine) RestoreObjective(ctx context.Context, id, actorID string) (domain.Objective, error) {
	o, err := e.Repo.GetObjective(ctx, id)
	if err != nil {
		return o, err
	}
	if err := e.requireEdit(ctx, actorID, o, "restore objective"); err != nil {
		return o, err
	}
	if o.Status != domain.StatusArchived && o.Status != domain.StatusDeleted {
		return o, validationf("objective is not archived or deleted")
	}
	o.Status = domain.StatusActive
	o.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	return o, e.saveTransition(ctx, o, actorID, "objective.restored", nil)
}

// SoftDeleteObjective marks the objective deleted. Deleting an already
// deleted objective succeeds without touching the record.
func (e Engine) SoftDeleteObjective(ctx context.Context, id, actorID string) (domain.Objective, error) {
	o, err := e.Repo.GetObjective(ctx, id)
	if err != nil {
		return o, err
	}
	if err := e.requireEdit(ctx, actorID, o, "delete objective"); err != nil {
		return o, err
	}
	if o.Status == domain.StatusDeleted {
		return o, nil
	}
	o.Status = domain.StatusDeleted
	o.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	return o, e.saveTransition(ctx, o, actorID, "objective.deleted", nil)
}

// PurgeObjective permanently removes a soft-deleted objective. Any other
// prior status is a guard violation and leaves the record unchanged.
func (e Engine) PurgeObjective(ctx context.Context, id, actorID string) error {
	o, err := e.Repo.GetObjective(ctx, id)
	if err != nil {
		return err
	}
	if err := e.requireEdit(ctx, actorID, o, "purge objective"); err != nil {
		return err
	}
	if o.Status != domain.StatusDeleted {
		return GuardViolationError{Msg: "hard delete requires a soft-deleted objective"}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.PurgeObjective(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "objective.purged", "objective", id, actorID, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// EnrichOwners resolves owner references into display-ready records.
func (e Engine) EnrichOwners(ctx context.Context, refs []domain.OwnerRef) ([]directory.EnrichedOwner, error) {
	return directory.Enrich(ctx, e.Directory, refs)
}

func (e Engine) requireEdit(ctx context.Context, actorID string, o domain.Objective, action string) error {
	ok, err := e.Auth.CanEdit(ctx, actorID, o)
	if err != nil {
		return err
	}
	if !ok {
		return auth.ForbiddenError{Action: action}
	}
	return nil
}

func (e Engine) saveTransition(ctx context.Context, o domain.Objective, actorID, evtType string, payload events.EventPayload) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateObjective(ctx, tx, o); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, evtType, "objective", o.ID, actorID, payload); err != nil {
		return err
	}
	return tx.Commit()
}

// normalizeOwners enforces the category/owner invariant: individual
// objectives keep exactly one owner (extras are truncated), team objectives
// need at least one.
func normalizeOwners(category string, owners []domain.OwnerRef) ([]domain.OwnerRef, error) {
	if len(owners) == 0 {
		return nil, validationf("at least one owner is required")
	}
	for _, o := range owners {
		if o.UserID == "" {
			return nil, validationf("owner reference missing user id")
		}
	}
	if category == domain.CategoryIndividual && len(owners) > 1 {
		owners = owners[:1]
	}
	out := make([]domain.OwnerRef, len(owners))
	copy(out, owners)
	return out, nil
}

func normalizeKeyResults(krs []domain.KeyResult) ([]domain.KeyResult, error) {
	out := make([]domain.KeyResult, 0, len(krs))
	for _, kr := range krs {
		if kr.Type != domain.KeyResultPercent && kr.Type != domain.KeyResultTarget {
			return nil, validationf("key result type must be %s or %s", domain.KeyResultPercent, domain.KeyResultTarget)
		}
		if kr.KRID == "" {
			kr.KRID = uuid.New().String()
		}
		out = append(out, kr)
	}
	return out, nil
}

func sameOwners(a, b []domain.OwnerRef) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// IsNotFound reports whether err is the store's missing-record sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, repo.ErrNotFound)
}
