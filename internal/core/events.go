package core

// ChangeAction names a mutation that changed a trip.
type ChangeAction string

const (
	ChangeTripCreated        ChangeAction = "trip_created"
	ChangeTripUpdated        ChangeAction = "trip_updated"
	ChangeTripDeleted        ChangeAction = "trip_deleted"
	ChangeParticipantInvited ChangeAction = "participant_invited"
	ChangeActivityCreated    ChangeAction = "activity_created"
	ChangeActivityUpdated    ChangeAction = "activity_updated"
	ChangeActivityDeleted    ChangeAction = "activity_deleted"
	ChangeVoteCast           ChangeAction = "vote_cast"
)

// Removes reports whether the trip no longer exists after the change.
func (a ChangeAction) Removes() bool {
	return a == ChangeTripDeleted
}

func (a ChangeAction) Valid() bool {
	switch a {
	case ChangeTripCreated, ChangeTripUpdated, ChangeTripDeleted, ChangeParticipantInvited,
		ChangeActivityCreated, ChangeActivityUpdated, ChangeActivityDeleted, ChangeVoteCast:
		return true
	}
	return false
}
