package trips

import (
	"context"

	"tripplanner/internal/core"
	"tripplanner/internal/tripapi"
)

// Ports consumed by the web frontend and the export worker. Every method
// takes the caller's bearer token and reports failures as *tripapi.Error.
type (
	TripReader interface {
		GetTrips(ctx context.Context, token string) ([]core.Trip, error)
		GetTrip(ctx context.Context, tripID int64, token string) (core.Trip, error)
	}

	TripWriter interface {
		CreateTrip(ctx context.Context, in core.TripInput, token string) (core.Trip, error)
		UpdateTrip(ctx context.Context, tripID int64, in core.TripInput, token string) (core.Trip, error)
		DeleteTrip(ctx context.Context, tripID int64, token string) error
	}

	Membership interface {
		InviteUser(ctx context.Context, tripID int64, email, token string) (tripapi.Body, error)
		JoinTrip(ctx context.Context, tripCode, token string) (tripapi.Body, error)
	}

	ActivityReader interface {
		GetActivities(ctx context.Context, tripID int64, token string) ([]core.Activity, error)
	}

	ActivityWriter interface {
		CreateActivity(ctx context.Context, tripID int64, in core.ActivityInput, token string) (core.Activity, error)
		UpdateActivity(ctx context.Context, tripID, activityID int64, in core.ActivityInput, token string) (core.Activity, error)
		DeleteActivity(ctx context.Context, tripID, activityID int64, token string) error
	}

	// Voter casts a vote. The tally is never returned; callers re-read the trip.
	Voter interface {
		VoteActivity(ctx context.Context, tripID, activityID int64, vote bool, token string) (tripapi.Body, error)
	}

	// Backend is everything a trips data source provides.
	Backend interface {
		TripReader
		TripWriter
		Membership
		ActivityReader
		ActivityWriter
		Voter
	}
)

var _ Backend = (*tripapi.Client)(nil)
