package engine_test

import (
	"testing"

	"northstar/internal/domain"
	"northstar/internal/engine"
)

func obj(id, createdBy, category string, ownerIDs ...string) domain.Objective {
	owners := make([]domain.OwnerRef, 0, len(ownerIDs))
	for _, oid := range ownerIDs {
		owners = append(owners, domain.OwnerRef{UserID: oid})
	}
	return domain.Objective{
		ID:        id,
		CreatedBy: createdBy,
		Text:      "objective " + id,
		Category:  category,
		Owners:    owners,
		Status:    domain.StatusActive,
	}
}

func ids(items []domain.Objective) []string {
	out := make([]string, 0, len(items))
	for _, o := range items {
		out = append(out, o.ID)
	}
	return out
}

func TestVisibility(t *testing.T) {
	team := obj("t1", "u9", domain.CategoryTeam, "u8")
	individual := obj("i1", "u2", domain.CategoryIndividual, "u1")

	if !engine.VisibleTo("u3", team) {
		t.Fatalf("team objectives are visible to everyone")
	}
	if !engine.VisibleTo("u1", individual) {
		t.Fatalf("owner must see their objective")
	}
	if !engine.VisibleTo("u2", individual) {
		t.Fatalf("creator must see their objective")
	}
	if engine.VisibleTo("u3", individual) {
		t.Fatalf("third parties must not see an individual objective")
	}
}

func TestFilterConjunction(t *testing.T) {
	all := []domain.Objective{
		obj("a", "u1", domain.CategoryTeam, "u1"),
		obj("b", "u1", domain.CategoryTeam, "u2"),
		obj("c", "u2", domain.CategoryTeam, "u2"),
	}
	all[0].Department = "eng"
	all[1].Department = "eng"
	all[2].Department = "product"
	all[2].Status = domain.StatusAtRisk

	got := engine.FilterObjectives("viewer", all, engine.ListFilters{
		Department: "eng",
		CreatedBy:  []string{"u1"},
		Owners:     []string{"u2", "u3"},
	})
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("conjunctive filters, want [b], got %v", ids(got))
	}

	// status matches stored value case-insensitively
	got = engine.FilterObjectives("viewer", all, engine.ListFilters{Status: "AT_RISK"})
	if len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("status filter, want [c], got %v", ids(got))
	}
}

func TestFilterStatusIgnoresComputedOverlay(t *testing.T) {
	o := obj("x", "u1", domain.CategoryTeam, "u1")
	o.Status = domain.StatusAtRisk
	o.KeyResults = []domain.KeyResult{{Type: domain.KeyResultPercent, Progress: 100}}
	if o.DisplayStatus() != domain.StatusCompleted {
		t.Fatalf("overlay should read completed")
	}
	got := engine.FilterObjectives("viewer", []domain.Objective{o}, engine.ListFilters{Status: "completed"})
	if len(got) != 0 {
		t.Fatalf("status filter must match stored status, not the overlay")
	}
	got = engine.FilterObjectives("viewer", []domain.Objective{o}, engine.ListFilters{Status: "at_risk"})
	if len(got) != 1 {
		t.Fatalf("stored status should match")
	}
}

func TestFilterSearchAndDate(t *testing.T) {
	a := obj("a", "u1", domain.CategoryTeam, "u1")
	a.Text = "Grow revenue"
	a.Description = "Double ARR by Q4"
	a.EndDate = "2024-06-30"
	b := obj("b", "u1", domain.CategoryTeam, "u1")
	b.Text = "Reduce churn"
	b.EndDate = "2024-06-30T00:00:00Z"

	all := []domain.Objective{a, b}
	got := engine.FilterObjectives("viewer", all, engine.ListFilters{Search: "arr"})
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("search should match description case-insensitively, got %v", ids(got))
	}
	// date filter normalizes timestamps to the calendar day
	got = engine.FilterObjectives("viewer", all, engine.ListFilters{Date: "2024-06-30"})
	if len(got) != 2 {
		t.Fatalf("date filter should match both, got %v", ids(got))
	}
}

func TestQuarterSpan(t *testing.T) {
	span := engine.QuarterSpan("2024-02-15", "2024-04-10")
	if len(span) != 2 || span[0] != (engine.Quarter{Year: 2024, Q: 1}) || span[1] != (engine.Quarter{Year: 2024, Q: 2}) {
		t.Fatalf("want [2024-Q1 2024-Q2], got %v", span)
	}

	// crosses a year boundary
	span = engine.QuarterSpan("2023-11-01", "2024-02-01")
	want := []engine.Quarter{{Year: 2023, Q: 4}, {Year: 2024, Q: 1}}
	if len(span) != len(want) {
		t.Fatalf("want %v, got %v", want, span)
	}
	for i := range want {
		if span[i] != want[i] {
			t.Fatalf("want %v, got %v", want, span)
		}
	}

	// single date stands in for both ends
	span = engine.QuarterSpan("", "2024-08-20")
	if len(span) != 1 || span[0] != (engine.Quarter{Year: 2024, Q: 3}) {
		t.Fatalf("want [2024-Q3], got %v", span)
	}

	if got := engine.QuarterSpan("", ""); len(got) != 0 {
		t.Fatalf("no dates means empty span, got %v", got)
	}
}

func TestQuarterFilter(t *testing.T) {
	o := obj("q", "u1", domain.CategoryTeam, "u1")
	o.StartDate = "2024-02-15"
	o.EndDate = "2024-04-10"
	undated := obj("u", "u1", domain.CategoryTeam, "u1")
	all := []domain.Objective{o, undated}

	got := engine.FilterObjectives("viewer", all, engine.ListFilters{Quarters: []string{"2024-Q2"}})
	if len(got) != 1 || got[0].ID != "q" {
		t.Fatalf("2024-Q2 should include the spanning objective, got %v", ids(got))
	}
	got = engine.FilterObjectives("viewer", all, engine.ListFilters{Quarters: []string{"2024-Q3"}})
	if len(got) != 0 {
		t.Fatalf("2024-Q3 should exclude it, got %v", ids(got))
	}
	// empty filter set passes everything through
	got = engine.FilterObjectives("viewer", all, engine.ListFilters{})
	if len(got) != 2 {
		t.Fatalf("no quarter filter passes all, got %v", ids(got))
	}
}

func TestParseQuarter(t *testing.T) {
	q, err := engine.ParseQuarter("2024-Q2")
	if err != nil || q != (engine.Quarter{Year: 2024, Q: 2}) {
		t.Fatalf("parse 2024-Q2: %v %v", q, err)
	}
	if q.String() != "2024-Q2" {
		t.Fatalf("round trip, got %q", q.String())
	}
	for _, bad := range []string{"Q2-2024", "2024-Q5", "2024", ""} {
		if _, err := engine.ParseQuarter(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
