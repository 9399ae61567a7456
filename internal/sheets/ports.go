package sheets

import (
	"context"

	"tripplanner/internal/core"
)

// Ports for outbound adapters.
type (
	// ItineraryWriter replaces the exported itinerary of a trip.
	ItineraryWriter interface {
		WriteItinerary(ctx context.Context, trip core.Trip) (ref string, err error)
	}

	ItineraryDeleter interface {
		// DeleteItinerary removes the export of a trip. Missing exports are not an error.
		DeleteItinerary(ctx context.Context, tripID int64) error
	}

	ItineraryStore interface {
		ItineraryWriter
		ItineraryDeleter
	}
)
