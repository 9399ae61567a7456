package core

import "testing"

func cost(c int64) *Money { return &Money{Cents: c} }

func TestGroupByDateStableOrder(t *testing.T) {
	acts := []Activity{
		{ID: 1, Title: "a", Date: NewDate(2024, 1, 6)},
		{ID: 2, Title: "b", Date: NewDate(2024, 1, 5)},
		{ID: 3, Title: "c", Date: NewDate(2024, 1, 6)},
		{ID: 4, Title: "d", Date: NewDate(2024, 1, 7)},
		{ID: 5, Title: "e", Date: NewDate(2024, 1, 5)},
	}
	groups := GroupByDate(acts)
	wantKeys := []string{"2024-01-06", "2024-01-05", "2024-01-07"}
	if len(groups) != len(wantKeys) {
		t.Fatalf("expected %d groups, got %d", len(wantKeys), len(groups))
	}
	for i, k := range wantKeys {
		if groups[i].Key() != k {
			t.Fatalf("group %d key = %s, want %s", i, groups[i].Key(), k)
		}
	}
	if ids := []int64{groups[0].Activities[0].ID, groups[0].Activities[1].ID}; ids[0] != 1 || ids[1] != 3 {
		t.Fatalf("unexpected order inside group: %v", ids)
	}
	if len(GroupByDate(nil)) != 0 {
		t.Fatalf("no activities should yield no groups")
	}
}

func TestBudgetProjectionSkipsMissingCost(t *testing.T) {
	acts := []Activity{
		{Title: "Skiing", EstimatedCost: cost(5000)},
		{Title: "Dinner"},
		{Title: "Walk", EstimatedCost: cost(0)},
	}
	got := BudgetProjection(acts)
	if len(got) != 2 {
		t.Fatalf("expected 2 slices, got %d", len(got))
	}
	if got[0].Label != "Skiing" || got[0].Value.Cents != 5000 {
		t.Fatalf("unexpected first slice: %+v", got[0])
	}
	if got[1].Label != "Walk" || got[1].Value.Cents != 0 {
		t.Fatalf("zero cost must be kept: %+v", got[1])
	}
}

func TestBudgetBreakdownPercentAndPalette(t *testing.T) {
	var acts []Activity
	for i := 0; i < 7; i++ {
		acts = append(acts, Activity{Title: "x", EstimatedCost: cost(1000)})
	}
	shares := BudgetBreakdown(acts)
	if shares[0].Color != shares[6].Color {
		t.Fatalf("palette should cycle: %s vs %s", shares[0].Color, shares[6].Color)
	}
	if shares[0].Percent != 14 {
		t.Fatalf("expected 14%%, got %d", shares[0].Percent)
	}
}

func TestTripBudgetTotals(t *testing.T) {
	trip := Trip{
		GroupBudget: cost(10000),
		Activities: []Activity{
			{Title: "a", EstimatedCost: cost(2500)},
			{Title: "b"},
		},
	}
	if trip.TotalEstimated().Cents != 2500 {
		t.Fatalf("unexpected total %d", trip.TotalEstimated().Cents)
	}
	rem, ok := trip.RemainingBudget()
	if !ok || rem.Cents != 7500 {
		t.Fatalf("unexpected remaining %v %v", rem, ok)
	}
	if !trip.HasCosts() {
		t.Fatalf("expected HasCosts")
	}
	if _, ok := (Trip{}).RemainingBudget(); ok {
		t.Fatalf("no budget should report !ok")
	}
}
