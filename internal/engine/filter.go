package engine

import (
	"context"
	"strings"

	"northstar/internal/domain"
)

// ListFilters narrows the visible objective set. All populated filters apply
// conjunctively; set-valued filters match on membership.
type ListFilters struct {
	Status     string
	Category   string
	Department string
	CreatedBy  []string
	Owners     []string
	Date       string   // end date, date-only
	Quarters   []string // tokens like 2024-Q2
	Search     string
}

// VisibleTo is the base visibility predicate: team objectives are visible to
// everyone; otherwise the actor must be the creator or an owner.
func VisibleTo(actorID string, o domain.Objective) bool {
	if o.Category == domain.CategoryTeam {
		return true
	}
	if o.CreatedBy == actorID {
		return true
	}
	for _, owner := range o.Owners {
		if owner.UserID == actorID {
			return true
		}
	}
	return false
}

// ListObjectives loads every objective and narrows to what the actor may see.
func (e Engine) ListObjectives(ctx context.Context, actorID string, f ListFilters) ([]domain.Objective, error) {
	all, err := e.Repo.ListObjectives(ctx)
	if err != nil {
		return nil, err
	}
	return FilterObjectives(actorID, all, f), nil
}

// FilterObjectives applies visibility then the query filters, preserving the
// input order. It never mutates its input and is safe for concurrent use.
func FilterObjectives(actorID string, all []domain.Objective, f ListFilters) []domain.Objective {
	quarters, quartersValid := parseQuarterFilter(f.Quarters)
	out := make([]domain.Objective, 0, len(all))
	for _, o := range all {
		if !VisibleTo(actorID, o) {
			continue
		}
		if !matchesFilters(o, f, quarters, quartersValid) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func matchesFilters(o domain.Objective, f ListFilters, quarters map[Quarter]struct{}, quartersActive bool) bool {
	// status matches the stored value, never the computed overlay
	if f.Status != "" && !strings.EqualFold(f.Status, o.Status) {
		return false
	}
	if f.Category != "" && f.Category != o.Category {
		return false
	}
	if f.Department != "" && f.Department != o.Department {
		return false
	}
	if len(f.CreatedBy) > 0 && !contains(f.CreatedBy, o.CreatedBy) {
		return false
	}
	if len(f.Owners) > 0 && !anyOwnerIn(o.Owners, f.Owners) {
		return false
	}
	if f.Date != "" && dateOnly(o.EndDate) != f.Date {
		return false
	}
	if quartersActive && !spansAny(o, quarters) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(o.Text), needle) &&
			!strings.Contains(strings.ToLower(o.Description), needle) {
			return false
		}
	}
	return true
}

func parseQuarterFilter(tokens []string) (map[Quarter]struct{}, bool) {
	set := make(map[Quarter]struct{})
	for _, tok := range tokens {
		q, err := ParseQuarter(tok)
		if err != nil {
			continue
		}
		set[q] = struct{}{}
	}
	return set, len(set) > 0
}

func spansAny(o domain.Objective, want map[Quarter]struct{}) bool {
	for _, q := range QuarterSpan(o.StartDate, o.EndDate) {
		if _, ok := want[q]; ok {
			return true
		}
	}
	return false
}

func anyOwnerIn(owners []domain.OwnerRef, ids []string) bool {
	for _, owner := range owners {
		if contains(ids, owner.UserID) {
			return true
		}
	}
	return false
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
