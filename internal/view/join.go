package view

import (
	"context"
	"strings"
	"time"

	"tripplanner/internal/tripapi"
)

// JoinRedirectDelay is how long the success message stays before going home.
const JoinRedirectDelay = 2 * time.Second

// Joiner joins a trip by its share code.
type Joiner interface {
	JoinTrip(ctx context.Context, tripCode, token string) (tripapi.Body, error)
}

// JoinForm is the join-by-code page.
type JoinForm struct {
	Code    string
	Error   string
	Success string
	// Redirect and RedirectAfter are set once the join succeeded.
	Redirect      string
	RedirectAfter time.Duration
}

// Submit joins the trip identified by code. On failure the form stays as it
// is with the backend's message shown verbatim.
func (f *JoinForm) Submit(ctx context.Context, j Joiner, code, token string) error {
	f.Code = strings.TrimSpace(code)
	f.Success = ""
	if f.Code == "" {
		f.Error = MsgTripCodeRequired
		return ErrRequiredFields
	}
	if _, err := j.JoinTrip(ctx, f.Code, token); err != nil {
		f.Error = ErrorMessage(err, MsgJoinFailed)
		return err
	}
	f.Error = ""
	f.Success = MsgJoined
	f.Redirect = "/"
	f.RedirectAfter = JoinRedirectDelay
	return nil
}
