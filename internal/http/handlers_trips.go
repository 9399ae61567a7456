package http

import (
	"context"
	"net/http"
	"strconv"

	"tripplanner/internal/auth"
	"tripplanner/internal/core"
	applog "tripplanner/internal/log"
	"tripplanner/internal/tripapi"
	"tripplanner/internal/view"
)

func tripURL(id int64) string {
	return "/trips/" + strconv.FormatInt(id, 10)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	token, ok := s.token(w, r)
	if !ok {
		return
	}

	data := tripsPage{basePage: s.page("My trips")}
	status := http.StatusOK
	list, err := s.backend.GetTrips(r.Context(), token)
	if err != nil {
		if sessionExpired(err) {
			s.unauthorized(w, r)
			return
		}
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Trip list failed", "error", err)
		data.Error = view.ErrorMessage(err, "Failed to load trips")
		status = statusFor(err)
	}
	data.Trips = list
	s.render(w, r, NewHTMXResponse().Status(status), "trips.html", data)
}

// tripView builds the page state for the trip in the path on behalf of the
// token's user.
func (s *Server) tripView(r *http.Request, tripID int64, token string) *view.TripDetail {
	opts := []view.Option{
		view.WithUser(auth.CurrentUserID(token)),
		view.WithLogger(applog.FromContext(r.Context()).Logger),
	}
	if s.notifier != nil {
		opts = append(opts, view.WithNotifier(s.notifier))
	}
	return view.NewTripDetail(s.backend, tripID, token, opts...)
}

// loadTrip reads the token and {id}, then loads the trip. When the request
// cannot continue it has already answered and returns nil.
func (s *Server) loadTrip(w http.ResponseWriter, r *http.Request) *view.TripDetail {
	token, ok := s.token(w, r)
	if !ok {
		return nil
	}
	id, err := PathID(r, "id")
	if err != nil {
		NotFoundError(view.MsgTripNotFound).Write(w)
		return nil
	}
	v := s.tripView(r, id, token)
	if err := v.Load(r.Context()); err != nil {
		if sessionExpired(err) {
			s.unauthorized(w, r)
			return nil
		}
		s.renderDetail(w, r, v, NewHTMXResponse().Status(statusFor(err)))
		return nil
	}
	return v
}

// renderDetail renders the swappable trip body for HTMX requests and the
// whole page otherwise.
func (s *Server) renderDetail(w http.ResponseWriter, r *http.Request, v *view.TripDetail, resp *HTMXResponseBuilder) {
	if isHTMX(r) {
		s.render(w, r, resp, "trip_body", v)
		return
	}
	title := v.Trip.Name
	if title == "" {
		title = "Trip"
	}
	s.render(w, r, resp, "trip_detail.html", detailPage{basePage: s.page(title), Detail: v})
}

// finishAction answers a trip page mutation. On success a plain form post is
// redirected back to the trip, an HTMX request gets the refreshed body.
func (s *Server) finishAction(w http.ResponseWriter, r *http.Request, v *view.TripDetail, op string, activityID int64, action core.ChangeAction, err error) {
	s.recordAction(r.Context(), op, v.TripID, activityID, err)
	if err != nil {
		s.failAction(w, r, v, err)
		return
	}
	resp := NewHTMXResponse().TriggerTripChanged(v.TripID, action).TriggerDialogClose()
	if v.Notice != "" {
		resp.TriggerNotification(NotificationWarning, v.Notice, 5000)
	}
	if !isHTMX(r) {
		s.redirect(w, r, resp, tripURL(v.TripID))
		return
	}
	s.renderDetail(w, r, v, resp)
}

// failAction re-renders the trip with the view's error message. HTMX only
// swaps 2xx bodies, so the failure travels as a notification there.
func (s *Server) failAction(w http.ResponseWriter, r *http.Request, v *view.TripDetail, err error) {
	resp := NewHTMXResponse()
	if isHTMX(r) {
		resp.TriggerErrorNotification(v.Error)
	} else {
		resp.Status(mutationStatus(err))
	}
	s.renderDetail(w, r, v, resp)
}

// mutationStatus is the status of a page showing a failed mutation. Input
// the form rejected before any request is 422.
func mutationStatus(err error) int {
	if _, ok := tripapi.AsError(err); !ok {
		return http.StatusUnprocessableEntity
	}
	return statusFor(err)
}

func (s *Server) notify(ctx context.Context, tripID int64, action core.ChangeAction) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.TripChanged(ctx, tripID, action); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Failed to publish trip change",
			applog.FieldTripID, tripID,
			applog.FieldAction, string(action),
			"error", err)
	}
}

func (s *Server) handleTripDetail(w http.ResponseWriter, r *http.Request) {
	v := s.loadTrip(w, r)
	if v == nil {
		return
	}
	q := r.URL.Query()
	switch view.Dialog(q.Get("dialog")) {
	case view.DialogInvite:
		v.OpenInvite(sanitizeInput(q.Get("email")))
	case view.DialogActivity:
		aid, _ := strconv.ParseInt(q.Get("activity"), 10, 64)
		v.OpenActivity(aid)
	}
	s.renderDetail(w, r, v, NewHTMXResponse())
}

func (s *Server) handleNewTrip(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.token(w, r); !ok {
		return
	}
	s.render(w, r, NewHTMXResponse(), "trip_form.html", tripFormPage{
		basePage: s.page("New trip"),
		Action:   "/trips",
	})
}

func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	token, ok := s.token(w, r)
	if !ok {
		return
	}
	p, fail := ParseBodyOrFail(r)
	if fail != nil {
		fail.Write(w)
		return
	}

	form := p.TripForm()
	trip, err := form.Create(r.Context(), s.backend, token)
	s.recordAction(r.Context(), applog.OpCreate, trip.ID, 0, err)
	if err != nil {
		s.render(w, r, NewHTMXResponse().Status(mutationStatus(err)), "trip_form.html", tripFormPage{
			basePage: s.page("New trip"),
			Form:     form,
			Action:   "/trips",
		})
		return
	}
	s.notify(r.Context(), trip.ID, core.ChangeTripCreated)
	s.redirect(w, r, NewHTMXResponse().TriggerTripChanged(trip.ID, core.ChangeTripCreated), tripURL(trip.ID))
}

func (s *Server) handleEditTrip(w http.ResponseWriter, r *http.Request) {
	v := s.loadTrip(w, r)
	if v == nil {
		return
	}
	s.render(w, r, NewHTMXResponse(), "trip_form.html", tripFormPage{
		basePage: s.page("Edit " + v.Trip.Name),
		Form:     view.TripFormFrom(v.Trip),
		Action:   tripURL(v.TripID),
		TripID:   v.TripID,
	})
}

func (s *Server) handleUpdateTrip(w http.ResponseWriter, r *http.Request) {
	token, ok := s.token(w, r)
	if !ok {
		return
	}
	id, err := PathID(r, "id")
	if err != nil {
		NotFoundError(view.MsgTripNotFound).Write(w)
		return
	}
	p, fail := ParseBodyOrFail(r)
	if fail != nil {
		fail.Write(w)
		return
	}

	form := p.TripForm()
	_, err = form.Update(r.Context(), s.backend, id, token)
	s.recordAction(r.Context(), applog.OpUpdate, id, 0, err)
	if err != nil {
		s.render(w, r, NewHTMXResponse().Status(mutationStatus(err)), "trip_form.html", tripFormPage{
			basePage: s.page("Edit trip"),
			Form:     form,
			Action:   tripURL(id),
			TripID:   id,
		})
		return
	}
	s.notify(r.Context(), id, core.ChangeTripUpdated)
	s.redirect(w, r, NewHTMXResponse().TriggerTripChanged(id, core.ChangeTripUpdated), tripURL(id))
}

func (s *Server) handleDeleteTrip(w http.ResponseWriter, r *http.Request) {
	v := s.loadTrip(w, r)
	if v == nil {
		return
	}
	err := v.DeleteTrip(r.Context())
	s.recordAction(r.Context(), applog.OpDelete, v.TripID, 0, err)
	if err != nil {
		s.failAction(w, r, v, err)
		return
	}
	resp := NewHTMXResponse().
		TriggerTripChanged(v.TripID, core.ChangeTripDeleted).
		TriggerSuccessNotification("Trip deleted")
	s.redirect(w, r, resp, v.Redirect)
}

func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	v := s.loadTrip(w, r)
	if v == nil {
		return
	}
	p, fail := ParseBodyOrFail(r)
	if fail != nil {
		fail.Write(w)
		return
	}
	err := v.Invite(r.Context(), p.Get("email"))
	s.finishAction(w, r, v, applog.OpInvite, 0, core.ChangeParticipantInvited, err)
}
