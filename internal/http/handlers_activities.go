package http

import (
	"net/http"

	"tripplanner/internal/core"
	applog "tripplanner/internal/log"
	"tripplanner/internal/view"
)

func (s *Server) handleCreateActivity(w http.ResponseWriter, r *http.Request) {
	v := s.loadTrip(w, r)
	if v == nil {
		return
	}
	p, fail := ParseBodyOrFail(r)
	if fail != nil {
		fail.Write(w)
		return
	}
	err := v.CreateActivity(r.Context(), p.ActivityForm())
	s.finishAction(w, r, v, applog.OpCreate, 0, core.ChangeActivityCreated, err)
}

func (s *Server) handleUpdateActivity(w http.ResponseWriter, r *http.Request) {
	v := s.loadTrip(w, r)
	if v == nil {
		return
	}
	aid, err := PathID(r, "aid")
	if err != nil {
		NotFoundError("Activity not found").Write(w)
		return
	}
	p, fail := ParseBodyOrFail(r)
	if fail != nil {
		fail.Write(w)
		return
	}
	err = v.UpdateActivity(r.Context(), aid, p.ActivityForm())
	s.finishAction(w, r, v, applog.OpUpdate, aid, core.ChangeActivityUpdated, err)
}

func (s *Server) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	v := s.loadTrip(w, r)
	if v == nil {
		return
	}
	aid, err := PathID(r, "aid")
	if err != nil {
		NotFoundError("Activity not found").Write(w)
		return
	}
	err = v.DeleteActivity(r.Context(), aid)
	s.finishAction(w, r, v, applog.OpDelete, aid, core.ChangeActivityDeleted, err)
}

// handleVote records an up or down vote. The tally rendered afterwards comes
// from the reloaded trip.
func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	v := s.loadTrip(w, r)
	if v == nil {
		return
	}
	aid, err := PathID(r, "aid")
	if err != nil {
		NotFoundError("Activity not found").Write(w)
		return
	}
	p, fail := ParseBodyOrFail(r)
	if fail != nil {
		fail.Write(w)
		return
	}
	vote, err := ParseVote(p.Get("vote"))
	if err != nil {
		BadRequestError("Invalid vote").Write(w)
		return
	}
	err = v.Vote(r.Context(), aid, vote)
	s.finishAction(w, r, v, applog.OpVote, aid, core.ChangeVoteCast, err)
}

// handleActivitiesPartial renders only the activity list, read through the
// activities endpoint. The trip page polls it to pick up other members' edits.
func (s *Server) handleActivitiesPartial(w http.ResponseWriter, r *http.Request) {
	token, ok := s.token(w, r)
	if !ok {
		return
	}
	id, err := PathID(r, "id")
	if err != nil {
		NotFoundError(view.MsgTripNotFound).Write(w)
		return
	}

	activities, err := s.backend.GetActivities(r.Context(), id, token)
	if err != nil {
		if sessionExpired(err) {
			s.unauthorized(w, r)
			return
		}
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Activity list failed",
			applog.FieldTripID, id,
			"error", err)
		ErrorResponse(statusFor(err), view.ErrorMessage(err, view.MsgLoadFailed)).Write(w)
		return
	}

	v := s.tripView(r, id, token)
	v.Trip = core.Trip{ID: id, Activities: activities}
	v.State = view.StateReady
	s.render(w, r, NewHTMXResponse(), "activities", v)
}
