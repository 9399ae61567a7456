package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"AD", Adventure, true},
		{"food", Food, true},
		{"Sightseeing", Sightseeing, true},
		{"", Other, true},
		{"nightlife", "", false},
	}
	for _, tc := range cases {
		got, err := ParseCategory(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("ParseCategory(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
		if !tc.ok && !errors.Is(err, ErrUnknownCategory) {
			t.Fatalf("ParseCategory(%q) expected ErrUnknownCategory, got %v", tc.in, err)
		}
	}
	if Category("zz").Label() != "Other" {
		t.Fatalf("unknown category should label as Other")
	}
}

func TestActivityInputValidate(t *testing.T) {
	good := ActivityInput{Title: "Skiing", Date: NewDate(2024, 1, 5), Category: Adventure}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := map[error]ActivityInput{
		ErrEmptyTitle:      {Title: "  ", Date: NewDate(2024, 1, 5), Category: Other},
		ErrMissingDate:     {Title: "x", Category: Other},
		ErrUnknownCategory: {Title: "x", Date: NewDate(2024, 1, 5), Category: "ZZ"},
		ErrInvalidAmount:   {Title: "x", Date: NewDate(2024, 1, 5), Category: Other, EstimatedCost: &Money{Cents: -1}},
	}
	for want, in := range bads {
		if err := in.Validate(); !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
	}
}

func TestTripInputValidate(t *testing.T) {
	in := TripInput{Name: "Ski Trip", StartDate: NewDate(2024, 1, 4), EndDate: NewDate(2024, 1, 8)}
	if err := in.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	in.EndDate = NewDate(2024, 1, 1)
	if err := in.Validate(); !errors.Is(err, ErrDateOrder) {
		t.Fatalf("expected ErrDateOrder, got %v", err)
	}
	in.Name = ""
	if err := in.Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestRequiredFieldInputs(t *testing.T) {
	if err := (InviteInput{}).Validate(); !errors.Is(err, ErrEmptyEmail) {
		t.Fatalf("expected ErrEmptyEmail, got %v", err)
	}
	if err := (JoinInput{TripCode: " "}).Validate(); !errors.Is(err, ErrEmptyTripCode) {
		t.Fatalf("expected ErrEmptyTripCode, got %v", err)
	}
}

func TestParseClock(t *testing.T) {
	if v, err := ParseClock(""); v != nil || err != nil {
		t.Fatalf("blank time should be nil, got %v %v", v, err)
	}
	v, err := ParseClock("09:30:00")
	if err != nil || *v != "09:30" {
		t.Fatalf("unexpected clock: %v %v", v, err)
	}
	if _, err := ParseClock("25:99"); !errors.Is(err, ErrInvalidTime) {
		t.Fatalf("expected ErrInvalidTime, got %v", err)
	}
}

func TestTripDecodeBackendShapes(t *testing.T) {
	body := `{
		"id": 42, "name": "Ski Trip", "start_date": "2024-01-04", "end_date": "2024-01-08",
		"group_budget": "500.00", "created_by": 7, "trip_code": "AB12CD",
		"participants": [
			{"id": 1, "user": 7, "username": "ann", "email": "ann@example.com"},
			{"id": 2, "user": {"id": 8, "username": "bob", "email": "bob@example.com"}}
		],
		"activities": [
			{"id": 1, "title": "Skiing", "date": "2024-01-05", "category": "AD", "estimated_cost": 50, "upvotes": 2, "downvotes": 0},
			{"id": 2, "title": "Dinner", "date": "2024-01-05", "category": "FD", "estimated_cost": null}
		]
	}`
	var trip Trip
	if err := json.Unmarshal([]byte(body), &trip); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if trip.CreatedBy.ID != 7 || !trip.IsCreator(7) || trip.IsCreator(8) {
		t.Fatalf("unexpected creator: %+v", trip.CreatedBy)
	}
	if trip.GroupBudget == nil || trip.GroupBudget.Cents != 50000 {
		t.Fatalf("unexpected budget: %v", trip.GroupBudget)
	}
	if trip.Participants[0].User.Username != "ann" || trip.Participants[1].User.Username != "bob" {
		t.Fatalf("unexpected participants: %+v", trip.Participants)
	}
	if trip.Activities[0].EstimatedCost == nil || trip.Activities[0].EstimatedCost.Cents != 5000 {
		t.Fatalf("unexpected cost: %v", trip.Activities[0].EstimatedCost)
	}
	if trip.Activities[1].EstimatedCost != nil {
		t.Fatalf("null cost should stay nil")
	}
	if trip.Activities[0].Date.String() != "2024-01-05" {
		t.Fatalf("unexpected date: %s", trip.Activities[0].Date)
	}
}

func TestActivityInputEncodesNulls(t *testing.T) {
	b, err := json.Marshal(ActivityInput{Title: "Museum", Date: NewDate(2024, 2, 1), Category: Sightseeing})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"title":"Museum","date":"2024-02-01","time":null,"category":"ST","estimated_cost":null,"notes":null}`
	if string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}
}

func TestUserInitial(t *testing.T) {
	if (User{Username: "ann"}).Initial() != "A" {
		t.Fatalf("expected A")
	}
	if (User{}).Initial() != "?" {
		t.Fatalf("expected ? for empty username")
	}
}
