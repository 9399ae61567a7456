package sheets

import (
	"fmt"
	"strings"

	"tripplanner/internal/core"
)

// Header is the first row of every exported itinerary.
var Header = []string{"Date", "Time", "Title", "Category", "Estimated cost", "Upvotes", "Downvotes"}

const maxTitleLen = 90

// SheetTitle names the tab of a trip. The id suffix keeps titles unique and
// lets the tab be found again after a rename.
func SheetTitle(trip core.Trip) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '*', '?', ':', '/', '\\', '\'':
			return ' '
		}
		return r
	}, strings.TrimSpace(trip.Name))
	name = strings.Join(strings.Fields(name), " ")
	if len(name) > maxTitleLen {
		name = strings.TrimSpace(name[:maxTitleLen])
	}
	if name == "" {
		name = "Trip"
	}
	return name + TitleSuffix(trip.ID)
}

// TitleSuffix is the part of a sheet title that identifies the trip.
func TitleSuffix(tripID int64) string {
	return fmt.Sprintf(" (#%d)", tripID)
}

// ItineraryRows renders the itinerary as sheet values: header, one row per
// activity grouped by date, then a total row.
func ItineraryRows(trip core.Trip) [][]any {
	rows := [][]any{toAny(Header)}
	for _, g := range core.GroupByDate(trip.Activities) {
		for _, a := range g.Activities {
			clock := ""
			if a.Time != nil {
				clock = *a.Time
			}
			cost := ""
			if a.EstimatedCost != nil {
				cost = a.EstimatedCost.Decimal()
			}
			rows = append(rows, []any{
				a.Date.String(),
				clock,
				a.Title,
				a.Category.Label(),
				cost,
				a.Upvotes,
				a.Downvotes,
			})
		}
	}
	total := []any{"", "", "Total", "", trip.TotalEstimated().Decimal(), "", ""}
	if remaining, ok := trip.RemainingBudget(); ok {
		total[5] = "Remaining"
		total[6] = remaining.Decimal()
	}
	return append(rows, total)
}

// RangeRef is the A1 reference covering rows written by ItineraryRows.
func RangeRef(title string, rows int) string {
	return fmt.Sprintf("'%s'!A1:G%d", title, rows)
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
