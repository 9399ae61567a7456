package core

import "math"

// DateGroup holds the activities scheduled on one day.
type DateGroup struct {
	Date       Date
	Activities []Activity
}

// Key is the YYYY-MM-DD grouping key.
func (g DateGroup) Key() string {
	return g.Date.String()
}

// BudgetSlice is one labelled value of the budget chart.
type BudgetSlice struct {
	Label string
	Value Money
}

// BudgetShare is a BudgetSlice with its share of the total and a chart colour.
type BudgetShare struct {
	BudgetSlice
	Percent int
	Color   string
}

var chartPalette = []string{"#FF6384", "#36A2EB", "#FFCE56", "#4BC0C0", "#9966FF", "#FF9F40"}

// GroupByDate groups activities by date. Groups follow the order in which a
// date first appears and activities keep their input order inside a group.
func GroupByDate(activities []Activity) []DateGroup {
	index := make(map[string]int)
	var groups []DateGroup
	for _, a := range activities {
		key := a.Date.String()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, DateGroup{Date: a.Date})
		}
		groups[i].Activities = append(groups[i].Activities, a)
	}
	return groups
}

// BudgetProjection maps every activity with an estimated cost to a chart
// slice. Activities without a cost are left out; a zero cost is kept.
func BudgetProjection(activities []Activity) []BudgetSlice {
	var out []BudgetSlice
	for _, a := range activities {
		if a.EstimatedCost == nil {
			continue
		}
		out = append(out, BudgetSlice{Label: a.Title, Value: *a.EstimatedCost})
	}
	return out
}

// BudgetBreakdown decorates the projection with rounded percentages and
// palette colours, cycling through the palette.
func BudgetBreakdown(activities []Activity) []BudgetShare {
	slices := BudgetProjection(activities)
	var total int64
	for _, s := range slices {
		total += s.Value.Cents
	}
	out := make([]BudgetShare, 0, len(slices))
	for i, s := range slices {
		pct := 0
		if total > 0 && s.Value.Cents > 0 {
			pct = int(math.Round(float64(s.Value.Cents) * 100 / float64(total)))
		}
		out = append(out, BudgetShare{
			BudgetSlice: s,
			Percent:     pct,
			Color:       chartPalette[i%len(chartPalette)],
		})
	}
	return out
}

// TotalEstimated sums the estimated cost of all activities that have one.
func (t Trip) TotalEstimated() Money {
	var total int64
	for _, s := range BudgetProjection(t.Activities) {
		total += s.Value.Cents
	}
	return Money{Cents: total}
}

// RemainingBudget returns the group budget minus estimated costs.
// ok is false when the trip has no group budget.
func (t Trip) RemainingBudget() (Money, bool) {
	if t.GroupBudget == nil {
		return Money{}, false
	}
	return Money{Cents: t.GroupBudget.Cents - t.TotalEstimated().Cents}, true
}

// HasCosts reports whether any activity carries an estimated cost.
func (t Trip) HasCosts() bool {
	for _, a := range t.Activities {
		if a.EstimatedCost != nil && a.EstimatedCost.Cents > 0 {
			return true
		}
	}
	return false
}
