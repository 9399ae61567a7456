package http

import (
	"html/template"
	"net/http"
	"strings"

	"tripplanner/internal/core"
	"tripplanner/internal/tripapi"
	"tripplanner/internal/view"
)

// templateFuncs are available to every page and partial.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money":      formatMoney,
		"categories": core.Categories,
		"remaining":  remainingBudget,
		"myVote":     myVote,
	}
}

// formatMoney renders cents as "$12.34". A nil amount renders empty.
func formatMoney(v any) string {
	switch m := v.(type) {
	case core.Money:
		return m.String()
	case *core.Money:
		if m == nil {
			return ""
		}
		return m.String()
	case int64:
		return core.Money{Cents: m}.String()
	default:
		return ""
	}
}

func remainingBudget(t core.Trip) *core.Money {
	m, ok := t.RemainingBudget()
	if !ok {
		return nil
	}
	return &m
}

// myVote returns "up", "down" or "" for the viewer's vote on a.
func myVote(v *view.TripDetail, a core.Activity) string {
	vote, ok := v.MyVote(a)
	switch {
	case !ok:
		return ""
	case vote:
		return "up"
	default:
		return "down"
	}
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// statusFor maps a backend failure to the status of the page showing it.
func statusFor(err error) int {
	apiErr, ok := tripapi.AsError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch apiErr.Kind {
	case tripapi.KindSessionExpired:
		return http.StatusUnauthorized
	case tripapi.KindNetwork:
		return http.StatusBadGateway
	case tripapi.KindServer:
		if apiErr.Status >= 400 {
			return apiErr.Status
		}
	}
	return http.StatusInternalServerError
}

func sessionExpired(err error) bool {
	apiErr, ok := tripapi.AsError(err)
	return ok && apiErr.Kind == tripapi.KindSessionExpired
}
