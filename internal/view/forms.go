package view

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tripplanner/internal/core"
)

// ErrRequiredFields is returned when a form misses a required value.
var ErrRequiredFields = errors.New("required fields missing")

// ActivityForm holds the raw values of the add/edit activity dialog.
type ActivityForm struct {
	Title    string
	Date     string
	Time     string
	Category string
	Cost     string
	Notes    string
}

// NewActivityForm returns an empty form with the default category.
func NewActivityForm() ActivityForm {
	return ActivityForm{Category: string(core.Other)}
}

// ActivityFormFrom pre-fills the form for editing a.
func ActivityFormFrom(a core.Activity) ActivityForm {
	f := ActivityForm{
		Title:    a.Title,
		Date:     a.Date.String(),
		Category: string(a.Category),
	}
	if a.Time != nil {
		f.Time = *a.Time
	}
	if a.EstimatedCost != nil {
		f.Cost = a.EstimatedCost.Decimal()
	}
	if a.Notes != nil {
		f.Notes = *a.Notes
	}
	return f
}

// Missing reports whether a required field is blank.
func (f ActivityForm) Missing() bool {
	return strings.TrimSpace(f.Title) == "" || strings.TrimSpace(f.Date) == ""
}

// Input converts the form into the API payload. Blank optional fields become
// null; a blank category means Other.
func (f ActivityForm) Input() (core.ActivityInput, error) {
	if f.Missing() {
		return core.ActivityInput{}, ErrRequiredFields
	}
	date, err := core.ParseDate(f.Date)
	if err != nil {
		return core.ActivityInput{}, fmt.Errorf("date: %w", err)
	}
	clock, err := core.ParseClock(f.Time)
	if err != nil {
		return core.ActivityInput{}, fmt.Errorf("time: %w", err)
	}
	cat, err := core.ParseCategory(f.Category)
	if err != nil {
		return core.ActivityInput{}, fmt.Errorf("category: %w", err)
	}
	cost, err := core.ParseOptionalMoney(f.Cost)
	if err != nil {
		return core.ActivityInput{}, fmt.Errorf("estimated cost: %w", err)
	}
	return core.ActivityInput{
		Title:         strings.TrimSpace(f.Title),
		Date:          date,
		Time:          clock,
		Category:      cat,
		EstimatedCost: cost,
		Notes:         core.OptionalString(f.Notes),
	}, nil
}

// TripForm holds the raw values of the create/edit trip page.
type TripForm struct {
	Name      string
	StartDate string
	EndDate   string
	Budget    string

	// Error is the message shown above the form after a failed submit.
	Error string
}

// TripFormFrom pre-fills the form for editing t.
func TripFormFrom(t core.Trip) TripForm {
	f := TripForm{
		Name:      t.Name,
		StartDate: t.StartDate.String(),
		EndDate:   t.EndDate.String(),
	}
	if t.GroupBudget != nil {
		f.Budget = t.GroupBudget.Decimal()
	}
	return f
}

func (f TripForm) Missing() bool {
	return strings.TrimSpace(f.Name) == "" ||
		strings.TrimSpace(f.StartDate) == "" ||
		strings.TrimSpace(f.EndDate) == ""
}

// Input converts the form into the API payload.
func (f TripForm) Input() (core.TripInput, error) {
	if f.Missing() {
		return core.TripInput{}, ErrRequiredFields
	}
	start, err := core.ParseDate(f.StartDate)
	if err != nil {
		return core.TripInput{}, fmt.Errorf("start date: %w", err)
	}
	end, err := core.ParseDate(f.EndDate)
	if err != nil {
		return core.TripInput{}, fmt.Errorf("end date: %w", err)
	}
	budget, err := core.ParseOptionalMoney(f.Budget)
	if err != nil {
		return core.TripInput{}, fmt.Errorf("group budget: %w", err)
	}
	in := core.TripInput{
		Name:        strings.TrimSpace(f.Name),
		StartDate:   start,
		EndDate:     end,
		GroupBudget: budget,
	}
	if err := in.Validate(); err != nil {
		return core.TripInput{}, err
	}
	return in, nil
}

// inputMessage turns a local form error into text for the user.
func inputMessage(err error, required string) string {
	if errors.Is(err, ErrRequiredFields) {
		return required
	}
	msg := err.Error()
	if msg == "" {
		return required
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

// TripSaver creates and updates trips.
type TripSaver interface {
	CreateTrip(ctx context.Context, in core.TripInput, token string) (core.Trip, error)
	UpdateTrip(ctx context.Context, tripID int64, in core.TripInput, token string) (core.Trip, error)
}

// Create submits the form as a new trip. Failures set Error and keep the
// entered values.
func (f *TripForm) Create(ctx context.Context, s TripSaver, token string) (core.Trip, error) {
	in, err := f.Input()
	if err != nil {
		f.Error = inputMessage(err, MsgTripRequired)
		return core.Trip{}, err
	}
	trip, err := s.CreateTrip(ctx, in, token)
	if err != nil {
		f.Error = ErrorMessage(err, MsgSaveTripFailed)
		return core.Trip{}, err
	}
	f.Error = ""
	return trip, nil
}

// Update submits the form as changes to tripID.
func (f *TripForm) Update(ctx context.Context, s TripSaver, tripID int64, token string) (core.Trip, error) {
	in, err := f.Input()
	if err != nil {
		f.Error = inputMessage(err, MsgTripRequired)
		return core.Trip{}, err
	}
	trip, err := s.UpdateTrip(ctx, tripID, in, token)
	if err != nil {
		f.Error = ErrorMessage(err, MsgSaveTripFailed)
		return core.Trip{}, err
	}
	f.Error = ""
	return trip, nil
}
