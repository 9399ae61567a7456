package view

import (
	"net/http"

	"tripplanner/internal/tripapi"
)

// Fallback messages shown when a failure carries nothing more specific.
const (
	MsgLoadFailed           = "Failed to load trip details"
	MsgTripNotFound         = "Trip not found"
	MsgInviteFailed         = "Failed to invite user"
	MsgCreateActivityFailed = "Failed to create activity"
	MsgUpdateActivityFailed = "Failed to update activity"
	MsgDeleteActivityFailed = "Failed to delete activity"
	MsgVoteFailed           = "Failed to record vote"
	MsgDeleteTripFailed     = "Failed to delete trip"
	MsgSaveTripFailed       = "Failed to save trip"
	MsgJoinFailed           = "Failed to join trip. Please check the code and try again."

	MsgEmailRequired    = "Please enter an email address"
	MsgActivityRequired = "Title and date are required"
	MsgTripRequired     = "Name, start date and end date are required"
	MsgTripCodeRequired = "Please enter a trip code"
	MsgJoined           = "Successfully joined the trip!"
)

// ErrorMessage picks what the user sees for err: the backend's own message
// for a rejected request, the fixed text for session, network and request
// failures, otherwise fallback.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	apiErr, ok := tripapi.AsError(err)
	if !ok {
		return fallback
	}
	if apiErr.Kind != tripapi.KindServer {
		return apiErr.Detail
	}
	if apiErr.Status >= http.StatusInternalServerError || apiErr.Detail == "" || apiErr.Detail == http.StatusText(apiErr.Status) {
		return fallback
	}
	return apiErr.Detail
}
