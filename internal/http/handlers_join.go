package http

import (
	"net/http"
	"strconv"

	applog "tripplanner/internal/log"
	"tripplanner/internal/view"
)

func (s *Server) handleJoinPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.token(w, r); !ok {
		return
	}
	s.render(w, r, NewHTMXResponse(), "join.html", joinPage{
		basePage: s.page("Join a trip"),
		Form:     view.JoinForm{Code: sanitizeInput(r.URL.Query().Get("code"))},
	})
}

// handleJoin joins by share code. On success the page shows the confirmation
// and the browser moves to the trip list after view.JoinRedirectDelay.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	token, ok := s.token(w, r)
	if !ok {
		return
	}
	p, fail := ParseBodyOrFail(r)
	if fail != nil {
		fail.Write(w)
		return
	}

	var form view.JoinForm
	err := form.Submit(r.Context(), s.backend, p.Get("trip_code"), token)
	s.recordAction(r.Context(), applog.OpJoin, 0, 0, err)

	resp := NewHTMXResponse()
	if err != nil {
		resp.Status(mutationStatus(err))
	} else {
		refresh := strconv.Itoa(int(form.RedirectAfter.Seconds())) + "; url=" + form.Redirect
		resp.Header("Refresh", refresh).TriggerSuccessNotification(form.Success)
	}
	s.render(w, r, resp, "join.html", joinPage{
		basePage: s.page("Join a trip"),
		Form:     form,
	})
}
