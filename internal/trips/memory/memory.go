// Package memory is an in-process trips backend for local development and
// tests. It follows the trips API contract: the caller is identified by the
// bearer token, failures are *tripapi.Error values shaped like the real
// backend's responses.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"tripplanner/internal/auth"
	"tripplanner/internal/core"
	"tripplanner/internal/tripapi"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

// Backend error details.
const (
	detailTripNotFound     = "Trip not found"
	detailActivityNotFound = "Activity not found"
	detailNotCreator       = "Only the trip creator can perform this action."
	detailNotAllowed       = "You do not have permission to modify this activity."
	detailAlreadyMember    = "User is already a participant in this trip."
	detailAlreadyJoined    = "You are already a participant in this trip."
	detailUnknownEmail     = "User with this email does not exist."
)

type trip struct {
	core.Trip
	activities []*activity
}

type activity struct {
	core.Activity
	votes map[int64]core.VoteRecord
}

// Store is an in-process trips backend. Callers are identified by the
// claims of their token.
type Store struct {
	mu      sync.Mutex
	seq     int64
	trips   map[int64]*trip
	users   map[int64]core.User
	now     func() time.Time
	newCode func() string
}

func New() *Store {
	return &Store{
		trips:   make(map[int64]*trip),
		users:   make(map[int64]core.User),
		now:     time.Now,
		newCode: randomCode,
	}
}

// AddUser registers a user so that invitations by email can find them.
func (s *Store) AddUser(u core.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// identify resolves the caller from the token claims. Unknown users seen in
// a valid token are registered on the fly.
func (s *Store) identify(token string) (core.User, error) {
	claims, err := auth.ParseUnverified(token)
	if err != nil || claims.UserID == 0 {
		return core.User{}, tripapi.SessionExpired()
	}
	if claims.Expired(s.now()) {
		return core.User{}, tripapi.SessionExpired()
	}
	id := int64(claims.UserID)
	u, ok := s.users[id]
	if !ok {
		u = core.User{ID: id, Username: claims.Username, Email: claims.Email}
		s.users[id] = u
	}
	return u, nil
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

func (s *Store) GetTrips(_ context.Context, token string) ([]core.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.identify(token)
	if err != nil {
		return nil, err
	}
	var out []core.Trip
	for _, t := range s.trips {
		if t.HasParticipant(u.ID) {
			out = append(out, t.snapshot())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetTrip(_ context.Context, tripID int64, token string) (core.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, t, err := s.memberTrip(tripID, token)
	if err != nil {
		return core.Trip{}, err
	}
	return t.snapshot(), nil
}

func (s *Store) CreateTrip(_ context.Context, in core.TripInput, token string) (core.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.identify(token)
	if err != nil {
		return core.Trip{}, err
	}
	if err := in.Validate(); err != nil {
		return core.Trip{}, validationError(err)
	}
	now := s.now()
	t := &trip{Trip: core.Trip{
		ID:          s.nextID(),
		Name:        strings.TrimSpace(in.Name),
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		GroupBudget: in.GroupBudget,
		CreatedBy:   u,
		CreatedAt:   now,
		TripCode:    s.uniqueCode(),
	}}
	t.Participants = []core.Participant{{ID: s.nextID(), User: u, JoinedAt: now}}
	s.trips[t.ID] = t
	return t.snapshot(), nil
}

func (s *Store) UpdateTrip(_ context.Context, tripID int64, in core.TripInput, token string) (core.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, t, err := s.memberTrip(tripID, token)
	if err != nil {
		return core.Trip{}, err
	}
	if !t.IsCreator(u.ID) {
		return core.Trip{}, tripapi.DetailError(http.StatusForbidden, detailNotCreator)
	}
	if err := in.Validate(); err != nil {
		return core.Trip{}, validationError(err)
	}
	t.Name = strings.TrimSpace(in.Name)
	t.StartDate = in.StartDate
	t.EndDate = in.EndDate
	t.GroupBudget = in.GroupBudget
	return t.snapshot(), nil
}

func (s *Store) DeleteTrip(_ context.Context, tripID int64, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, t, err := s.memberTrip(tripID, token)
	if err != nil {
		return err
	}
	if !t.IsCreator(u.ID) {
		return tripapi.DetailError(http.StatusForbidden, detailNotCreator)
	}
	delete(s.trips, tripID)
	return nil
}

func (s *Store) InviteUser(_ context.Context, tripID int64, email, token string) (tripapi.Body, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, t, err := s.memberTrip(tripID, token)
	if err != nil {
		return nil, err
	}
	if err := (core.InviteInput{Email: email}).Validate(); err != nil {
		return nil, fieldError("email", "This field may not be blank.")
	}
	invitee, ok := s.userByEmail(email)
	if !ok {
		return nil, fieldError("email", detailUnknownEmail)
	}
	if t.HasParticipant(invitee.ID) {
		return nil, tripapi.DetailError(http.StatusBadRequest, detailAlreadyMember)
	}
	t.Participants = append(t.Participants, core.Participant{ID: s.nextID(), User: invitee, JoinedAt: s.now()})
	return detailBody("User invited successfully"), nil
}

func (s *Store) JoinTrip(_ context.Context, tripCode, token string) (tripapi.Body, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.identify(token)
	if err != nil {
		return nil, err
	}
	code := strings.ToUpper(strings.TrimSpace(tripCode))
	if code == "" {
		return nil, fieldError("trip_code", "This field may not be blank.")
	}
	for _, t := range s.trips {
		if t.TripCode != code {
			continue
		}
		if t.HasParticipant(u.ID) {
			return nil, tripapi.DetailError(http.StatusBadRequest, detailAlreadyJoined)
		}
		t.Participants = append(t.Participants, core.Participant{ID: s.nextID(), User: u, JoinedAt: s.now()})
		return detailBody("Successfully joined the trip"), nil
	}
	return nil, tripapi.DetailError(http.StatusNotFound, detailTripNotFound)
}

func (s *Store) GetActivities(_ context.Context, tripID int64, token string) ([]core.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, t, err := s.memberTrip(tripID, token)
	if err != nil {
		return nil, err
	}
	return t.snapshot().Activities, nil
}

func (s *Store) CreateActivity(_ context.Context, tripID int64, in core.ActivityInput, token string) (core.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, t, err := s.memberTrip(tripID, token)
	if err != nil {
		return core.Activity{}, err
	}
	if err := in.Validate(); err != nil {
		return core.Activity{}, validationError(err)
	}
	a := &activity{
		Activity: core.Activity{
			ID:        s.nextID(),
			Trip:      t.ID,
			CreatedBy: u,
			CreatedAt: s.now(),
		},
		votes: make(map[int64]core.VoteRecord),
	}
	a.apply(in)
	t.activities = append(t.activities, a)
	return a.snapshot(), nil
}

func (s *Store) UpdateActivity(_ context.Context, tripID, activityID int64, in core.ActivityInput, token string) (core.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, t, a, err := s.memberActivity(tripID, activityID, token)
	if err != nil {
		return core.Activity{}, err
	}
	if a.CreatedBy.ID != u.ID && !t.IsCreator(u.ID) {
		return core.Activity{}, tripapi.DetailError(http.StatusForbidden, detailNotAllowed)
	}
	if err := in.Validate(); err != nil {
		return core.Activity{}, validationError(err)
	}
	a.apply(in)
	return a.snapshot(), nil
}

func (s *Store) DeleteActivity(_ context.Context, tripID, activityID int64, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, t, a, err := s.memberActivity(tripID, activityID, token)
	if err != nil {
		return err
	}
	if a.CreatedBy.ID != u.ID && !t.IsCreator(u.ID) {
		return tripapi.DetailError(http.StatusForbidden, detailNotAllowed)
	}
	for i, candidate := range t.activities {
		if candidate == a {
			t.activities = append(t.activities[:i], t.activities[i+1:]...)
			break
		}
	}
	return nil
}

// VoteActivity records the caller's vote, replacing any earlier one.
func (s *Store) VoteActivity(_ context.Context, tripID, activityID int64, vote bool, token string) (tripapi.Body, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, _, a, err := s.memberActivity(tripID, activityID, token)
	if err != nil {
		return nil, err
	}
	rec, ok := a.votes[u.ID]
	if !ok {
		rec = core.VoteRecord{ID: s.nextID(), User: u.ID}
	}
	rec.Vote = vote
	rec.VotedAt = s.now()
	a.votes[u.ID] = rec
	b, _ := json.Marshal(map[string]bool{"vote": vote})
	return tripapi.Body(b), nil
}

func (s *Store) memberTrip(tripID int64, token string) (core.User, *trip, error) {
	u, err := s.identify(token)
	if err != nil {
		return core.User{}, nil, err
	}
	t, ok := s.trips[tripID]
	if !ok || !t.HasParticipant(u.ID) {
		return core.User{}, nil, tripapi.DetailError(http.StatusNotFound, detailTripNotFound)
	}
	return u, t, nil
}

func (s *Store) memberActivity(tripID, activityID int64, token string) (core.User, *trip, *activity, error) {
	u, t, err := s.memberTrip(tripID, token)
	if err != nil {
		return core.User{}, nil, nil, err
	}
	for _, a := range t.activities {
		if a.ID == activityID {
			return u, t, a, nil
		}
	}
	return core.User{}, nil, nil, tripapi.DetailError(http.StatusNotFound, detailActivityNotFound)
}

func (s *Store) userByEmail(email string) (core.User, bool) {
	email = strings.TrimSpace(email)
	for _, u := range s.users {
		if u.Email != "" && strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return core.User{}, false
}

func (s *Store) uniqueCode() string {
	for {
		code := s.newCode()
		taken := false
		for _, t := range s.trips {
			if t.TripCode == code {
				taken = true
				break
			}
		}
		if !taken {
			return code
		}
	}
}

func (a *activity) apply(in core.ActivityInput) {
	a.Title = strings.TrimSpace(in.Title)
	a.Date = in.Date
	a.Time = in.Time
	a.Category = in.Category
	a.EstimatedCost = in.EstimatedCost
	a.Notes = in.Notes
}

// snapshot copies the activity and computes the tally from recorded votes.
func (a *activity) snapshot() core.Activity {
	out := a.Activity
	out.Votes = make([]core.VoteRecord, 0, len(a.votes))
	out.Upvotes, out.Downvotes = 0, 0
	for _, v := range a.votes {
		out.Votes = append(out.Votes, v)
		if v.Vote {
			out.Upvotes++
		} else {
			out.Downvotes++
		}
	}
	sort.Slice(out.Votes, func(i, j int) bool { return out.Votes[i].ID < out.Votes[j].ID })
	return out
}

// snapshot returns a copy callers may keep; later mutations do not leak into it.
func (t *trip) snapshot() core.Trip {
	out := t.Trip
	out.Participants = append([]core.Participant(nil), t.Participants...)
	out.Activities = make([]core.Activity, 0, len(t.activities))
	for _, a := range t.activities {
		out.Activities = append(out.Activities, a.snapshot())
	}
	return out
}

func randomCode() string {
	var b strings.Builder
	size := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return strings.Repeat("X", codeLength)
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String()
}

func detailBody(msg string) tripapi.Body {
	b, _ := json.Marshal(map[string]string{"detail": msg})
	return tripapi.Body(b)
}

func fieldError(field, msg string) *tripapi.Error {
	b, _ := json.Marshal(map[string][]string{field: {msg}})
	return tripapi.ServerError(http.StatusBadRequest, b)
}

// validationError maps input validation failures to the backend's field error shape.
func validationError(err error) *tripapi.Error {
	switch err {
	case core.ErrEmptyName:
		return fieldError("name", "This field may not be blank.")
	case core.ErrEmptyTitle:
		return fieldError("title", "This field may not be blank.")
	case core.ErrMissingDate:
		return fieldError("date", "This field is required.")
	case core.ErrDateOrder:
		return fieldError("end_date", "End date must be after start date.")
	case core.ErrInvalidAmount:
		return fieldError("estimated_cost", "A valid number is required.")
	case core.ErrUnknownCategory:
		return fieldError("category", "Not a valid choice.")
	default:
		return tripapi.DetailError(http.StatusBadRequest, err.Error())
	}
}
