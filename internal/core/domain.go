package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Adventure   Category = "AD"
	Food        Category = "FD"
	Sightseeing Category = "ST"
	Other       Category = "OT"
)

type (
	Category string

	// Date is a calendar day serialised as YYYY-MM-DD.
	Date struct {
		time.Time
	}

	User struct {
		ID       int64  `json:"id"`
		Username string `json:"username,omitempty"`
		Email    string `json:"email,omitempty"`
	}

	Participant struct {
		ID       int64     `json:"id"`
		User     User      `json:"user"`
		JoinedAt time.Time `json:"joined_at"`
	}

	VoteRecord struct {
		ID      int64     `json:"id"`
		User    int64     `json:"user"`
		Vote    bool      `json:"vote"`
		VotedAt time.Time `json:"voted_at"`
	}

	Activity struct {
		ID            int64        `json:"id"`
		Trip          int64        `json:"trip,omitempty"`
		Title         string       `json:"title"`
		Date          Date         `json:"date"`
		Time          *string      `json:"time"`
		Category      Category     `json:"category"`
		EstimatedCost *Money       `json:"estimated_cost"`
		Notes         *string      `json:"notes"`
		CreatedBy     User         `json:"created_by"`
		CreatedAt     time.Time    `json:"created_at"`
		Votes         []VoteRecord `json:"votes"`
		Upvotes       int          `json:"upvotes"`
		Downvotes     int          `json:"downvotes"`
	}

	Trip struct {
		ID           int64         `json:"id"`
		Name         string        `json:"name"`
		StartDate    Date          `json:"start_date"`
		EndDate      Date          `json:"end_date"`
		GroupBudget  *Money        `json:"group_budget"`
		CreatedBy    User          `json:"created_by"`
		CreatedAt    time.Time     `json:"created_at"`
		TripCode     string        `json:"trip_code"`
		Participants []Participant `json:"participants"`
		Activities   []Activity    `json:"activities"`
	}
)

// Request payloads sent to the trips API.
type (
	TripInput struct {
		Name        string `json:"name"`
		StartDate   Date   `json:"start_date"`
		EndDate     Date   `json:"end_date"`
		GroupBudget *Money `json:"group_budget"`
	}

	ActivityInput struct {
		Title         string   `json:"title"`
		Date          Date     `json:"date"`
		Time          *string  `json:"time"`
		Category      Category `json:"category"`
		EstimatedCost *Money   `json:"estimated_cost"`
		Notes         *string  `json:"notes"`
	}

	InviteInput struct {
		Email string `json:"email"`
	}

	JoinInput struct {
		TripCode string `json:"trip_code"`
	}

	VoteInput struct {
		Vote bool `json:"vote"`
	}
)

const (
	VoteUp   = true
	VoteDown = false
)

var (
	ErrEmptyName       = errors.New("trip name is required")
	ErrEmptyTitle      = errors.New("activity title is required")
	ErrMissingDate     = errors.New("date is required")
	ErrDateOrder       = errors.New("end date must not be before start date")
	ErrEmptyEmail      = errors.New("email is required")
	ErrEmptyTripCode   = errors.New("trip code is required")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidTime     = errors.New("invalid time")
	ErrUnknownCategory = errors.New("unknown category")
)

var categoryLabels = map[Category]string{
	Adventure:   "Adventure",
	Food:        "Food",
	Sightseeing: "Sightseeing",
	Other:       "Other",
}

// Categories lists the selectable categories in display order.
func Categories() []Category {
	return []Category{Adventure, Food, Sightseeing, Other}
}

// Label returns the human readable category name.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return categoryLabels[Other]
}

// ParseCategory accepts a category code or label, case-insensitively.
// An empty string yields Other.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Other, nil
	}
	for code, label := range categoryLabels {
		if strings.EqualFold(s, string(code)) || strings.EqualFold(s, label) {
			return code, nil
		}
	}
	return "", ErrUnknownCategory
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrMissingDate
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

// Display formats the date for page headings.
func (d Date) Display() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("Jan 2, 2006")
}

// ParseClock normalises an optional HH:MM or HH:MM:SS value.
// Empty input returns nil.
func ParseClock(s string) (*string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			v := t.Format("15:04")
			return &v, nil
		}
	}
	return nil, ErrInvalidTime
}

// OptionalString returns nil for blank input.
func OptionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (in TripInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrEmptyName
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return ErrMissingDate
	}
	if in.EndDate.Before(in.StartDate.Time) {
		return ErrDateOrder
	}
	if in.GroupBudget != nil && in.GroupBudget.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (in ActivityInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrEmptyTitle
	}
	if in.Date.IsZero() {
		return ErrMissingDate
	}
	if _, ok := categoryLabels[in.Category]; !ok {
		return ErrUnknownCategory
	}
	if in.EstimatedCost != nil && in.EstimatedCost.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (in InviteInput) Validate() error {
	if strings.TrimSpace(in.Email) == "" {
		return ErrEmptyEmail
	}
	return nil
}

func (in JoinInput) Validate() error {
	if strings.TrimSpace(in.TripCode) == "" {
		return ErrEmptyTripCode
	}
	return nil
}

// IsCreator reports whether userID created the trip.
func (t Trip) IsCreator(userID int64) bool {
	return userID != 0 && t.CreatedBy.ID == userID
}

// HasParticipant reports whether userID already joined the trip.
func (t Trip) HasParticipant(userID int64) bool {
	for _, p := range t.Participants {
		if p.User.ID == userID {
			return true
		}
	}
	return false
}

// Activity returns the activity with the given id.
func (t Trip) Activity(id int64) (Activity, bool) {
	for _, a := range t.Activities {
		if a.ID == id {
			return a, true
		}
	}
	return Activity{}, false
}

// Initial returns the upper-cased first letter of the username, for avatars.
func (u User) Initial() string {
	for _, r := range u.Username {
		return strings.ToUpper(string(r))
	}
	return "?"
}
