// Package view holds the page state of the trip screens.
//
// A TripDetail is built per request: it loads the trip once, runs at most one
// mutation and, when the mutation succeeds, loads the whole trip again so that
// participants, activity groups and the budget all come from the backend's
// answer. A failed mutation leaves the loaded trip untouched and sets Error.
// Values are not safe for concurrent use.
package view

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"tripplanner/internal/core"
	"tripplanner/internal/tripapi"
)

// State is where a TripDetail is in its load cycle.
type State int

const (
	StateLoading State = iota
	StateReady
	StateNotFound
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateNotFound:
		return "not_found"
	default:
		return "loading"
	}
}

// Dialog identifies which modal of the trip page is open.
type Dialog string

const (
	DialogNone     Dialog = ""
	DialogInvite   Dialog = "invite"
	DialogActivity Dialog = "activity"
)

// Backend is what the trip page needs from a trips data source.
type Backend interface {
	GetTrip(ctx context.Context, tripID int64, token string) (core.Trip, error)
	DeleteTrip(ctx context.Context, tripID int64, token string) error
	InviteUser(ctx context.Context, tripID int64, email, token string) (tripapi.Body, error)
	CreateActivity(ctx context.Context, tripID int64, in core.ActivityInput, token string) (core.Activity, error)
	UpdateActivity(ctx context.Context, tripID, activityID int64, in core.ActivityInput, token string) (core.Activity, error)
	DeleteActivity(ctx context.Context, tripID, activityID int64, token string) error
	VoteActivity(ctx context.Context, tripID, activityID int64, vote bool, token string) (tripapi.Body, error)
}

// ChangeNotifier is told about every successful mutation.
type ChangeNotifier interface {
	TripChanged(ctx context.Context, tripID int64, action core.ChangeAction) error
}

// NotifierFunc adapts a function to ChangeNotifier.
type NotifierFunc func(ctx context.Context, tripID int64, action core.ChangeAction) error

func (f NotifierFunc) TripChanged(ctx context.Context, tripID int64, action core.ChangeAction) error {
	return f(ctx, tripID, action)
}

// Option configures a TripDetail.
type Option func(*TripDetail)

func WithNotifier(n ChangeNotifier) Option {
	return func(v *TripDetail) { v.notifier = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(v *TripDetail) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithUser sets the id of the user looking at the page.
func WithUser(userID int64) Option {
	return func(v *TripDetail) { v.UserID = userID }
}

// TripDetail is the state of one trip page for one viewer.
type TripDetail struct {
	TripID int64
	UserID int64
	State  State
	Trip   core.Trip

	// Error is the visible error message, empty when the last step succeeded.
	Error string
	// Notice is shown when a mutation went through but the trip could not be
	// read back. The trip on screen is then the one from before the mutation.
	Notice string
	// Redirect is set when the page should be left, e.g. after deleting the trip.
	Redirect string

	Dialog       Dialog
	InviteEmail  string
	ActivityForm ActivityForm
	// EditingActivity is the id of the activity the dialog edits, 0 when adding.
	EditingActivity int64

	backend  Backend
	token    string
	notifier ChangeNotifier
	logger   *slog.Logger
}

func NewTripDetail(b Backend, tripID int64, token string, opts ...Option) *TripDetail {
	v := &TripDetail{
		TripID:       tripID,
		State:        StateLoading,
		ActivityForm: NewActivityForm(),
		backend:      b,
		token:        token,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = v.logger.With("component", "trip_view", "trip_id", tripID)
	return v
}

// Load fetches the trip aggregate. From StateLoading it moves to StateReady or
// StateNotFound. Once ready, a failed reload keeps the trip already shown.
func (v *TripDetail) Load(ctx context.Context) error {
	trip, err := v.backend.GetTrip(ctx, v.TripID, v.token)
	if err != nil {
		if v.State == StateReady {
			v.Error = ErrorMessage(err, MsgLoadFailed)
			return err
		}
		v.State = StateNotFound
		v.Error = loadMessage(err)
		return err
	}
	v.Trip = trip
	v.State = StateReady
	return nil
}

func loadMessage(err error) string {
	apiErr, ok := tripapi.AsError(err)
	if ok && apiErr.Kind == tripapi.KindServer && apiErr.Status == http.StatusNotFound {
		return MsgTripNotFound
	}
	return ErrorMessage(err, MsgLoadFailed)
}

// Ready reports whether a trip is loaded and actions may run.
func (v *TripDetail) Ready() bool {
	return v.State == StateReady
}

// OpenInvite opens the invite dialog.
func (v *TripDetail) OpenInvite(email string) {
	v.Dialog = DialogInvite
	v.InviteEmail = email
}

// OpenActivity opens the activity dialog, pre-filled when editing.
func (v *TripDetail) OpenActivity(activityID int64) {
	v.Dialog = DialogActivity
	v.EditingActivity = 0
	v.ActivityForm = NewActivityForm()
	if a, ok := v.Trip.Activity(activityID); ok {
		v.EditingActivity = a.ID
		v.ActivityForm = ActivityFormFrom(a)
	}
}

// CloseDialog closes any open dialog and clears its inputs.
func (v *TripDetail) CloseDialog() {
	v.Dialog = DialogNone
	v.InviteEmail = ""
	v.ActivityForm = NewActivityForm()
	v.EditingActivity = 0
}

// Invite adds a participant by email.
func (v *TripDetail) Invite(ctx context.Context, email string) error {
	v.OpenInvite(email)
	if strings.TrimSpace(email) == "" {
		v.Error = MsgEmailRequired
		return ErrRequiredFields
	}
	if _, err := v.backend.InviteUser(ctx, v.TripID, email, v.token); err != nil {
		return v.fail(err, MsgInviteFailed, "invite")
	}
	v.CloseDialog()
	return v.succeed(ctx, core.ChangeParticipantInvited)
}

// CreateActivity adds an activity from the dialog form.
func (v *TripDetail) CreateActivity(ctx context.Context, form ActivityForm) error {
	v.Dialog = DialogActivity
	v.EditingActivity = 0
	v.ActivityForm = form
	in, err := form.Input()
	if err != nil {
		v.Error = inputMessage(err, MsgActivityRequired)
		return err
	}
	if _, err := v.backend.CreateActivity(ctx, v.TripID, in, v.token); err != nil {
		return v.fail(err, MsgCreateActivityFailed, "create_activity")
	}
	v.CloseDialog()
	return v.succeed(ctx, core.ChangeActivityCreated)
}

// UpdateActivity saves the edit dialog for activityID.
func (v *TripDetail) UpdateActivity(ctx context.Context, activityID int64, form ActivityForm) error {
	v.Dialog = DialogActivity
	v.EditingActivity = activityID
	v.ActivityForm = form
	in, err := form.Input()
	if err != nil {
		v.Error = inputMessage(err, MsgActivityRequired)
		return err
	}
	if _, err := v.backend.UpdateActivity(ctx, v.TripID, activityID, in, v.token); err != nil {
		return v.fail(err, MsgUpdateActivityFailed, "update_activity")
	}
	v.CloseDialog()
	return v.succeed(ctx, core.ChangeActivityUpdated)
}

// DeleteActivity removes an activity and reloads in place.
func (v *TripDetail) DeleteActivity(ctx context.Context, activityID int64) error {
	if err := v.backend.DeleteActivity(ctx, v.TripID, activityID, v.token); err != nil {
		return v.fail(err, MsgDeleteActivityFailed, "delete_activity")
	}
	return v.succeed(ctx, core.ChangeActivityDeleted)
}

// Vote records the user's vote. The tally shown afterwards comes from the
// reload, never from local arithmetic.
func (v *TripDetail) Vote(ctx context.Context, activityID int64, vote bool) error {
	if _, err := v.backend.VoteActivity(ctx, v.TripID, activityID, vote, v.token); err != nil {
		return v.fail(err, MsgVoteFailed, "vote")
	}
	return v.succeed(ctx, core.ChangeVoteCast)
}

// DeleteTrip deletes the trip and points the user back to the trip list.
func (v *TripDetail) DeleteTrip(ctx context.Context) error {
	if err := v.backend.DeleteTrip(ctx, v.TripID, v.token); err != nil {
		return v.fail(err, MsgDeleteTripFailed, "delete_trip")
	}
	v.Error = ""
	v.Redirect = "/"
	v.notify(ctx, core.ChangeTripDeleted)
	return nil
}

func (v *TripDetail) fail(err error, fallback, op string) error {
	v.Error = ErrorMessage(err, fallback)
	v.logger.Warn("Trip action failed", "operation", op, "error", err)
	return err
}

// succeed finishes an accepted mutation. If the reload fails the previous
// trip stays on screen with Notice set, and the mutation still succeeded.
func (v *TripDetail) succeed(ctx context.Context, action core.ChangeAction) error {
	v.Error = ""
	v.Notice = ""
	v.notify(ctx, action)
	trip, err := v.backend.GetTrip(ctx, v.TripID, v.token)
	if err != nil {
		v.Notice = ErrorMessage(err, MsgLoadFailed)
		v.logger.Warn("Reload after mutation failed", "action", string(action), "error", err)
		return nil
	}
	v.Trip = trip
	v.State = StateReady
	return nil
}

func (v *TripDetail) notify(ctx context.Context, action core.ChangeAction) {
	if v.notifier == nil {
		return
	}
	if err := v.notifier.TripChanged(ctx, v.TripID, action); err != nil {
		v.logger.Warn("Failed to publish trip change", "action", string(action), "error", err)
	}
}

// Groups returns the activities grouped by date.
func (v *TripDetail) Groups() []core.DateGroup {
	return core.GroupByDate(v.Trip.Activities)
}

// Budget returns the chart slices for activities with a cost.
func (v *TripDetail) Budget() []core.BudgetShare {
	return core.BudgetBreakdown(v.Trip.Activities)
}

// CanDelete reports whether the viewer may delete the trip.
func (v *TripDetail) CanDelete() bool {
	return v.Trip.IsCreator(v.UserID)
}

// CanEdit reports whether the viewer may edit or delete a.
func (v *TripDetail) CanEdit(a core.Activity) bool {
	return v.UserID != 0 && (a.CreatedBy.ID == v.UserID || v.Trip.IsCreator(v.UserID))
}

// MyVote returns the viewer's recorded vote on a.
func (v *TripDetail) MyVote(a core.Activity) (vote bool, ok bool) {
	for _, r := range a.Votes {
		if r.User == v.UserID {
			return r.Vote, true
		}
	}
	return false, false
}
