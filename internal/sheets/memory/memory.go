package memory

import (
	"context"
	"sync"

	"tripplanner/internal/core"
	"tripplanner/internal/sheets"
)

// Store keeps exported itineraries in memory. It stands in for Google
// Sheets when no spreadsheet is configured.
type Store struct {
	mu     sync.Mutex
	tabs   map[int64]Tab
	writes int
}

// Tab is one exported itinerary.
type Tab struct {
	Title string
	Rows  [][]any
}

var _ sheets.ItineraryStore = (*Store)(nil)

func New() *Store {
	return &Store{tabs: make(map[int64]Tab)}
}

func (s *Store) WriteItinerary(_ context.Context, trip core.Trip) (string, error) {
	title := sheets.SheetTitle(trip)
	rows := sheets.ItineraryRows(trip)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabs[trip.ID] = Tab{Title: title, Rows: rows}
	s.writes++
	return "mem:" + sheets.RangeRef(title, len(rows)), nil
}

func (s *Store) DeleteItinerary(_ context.Context, tripID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tabs, tripID)
	return nil
}

// Tab returns the export of a trip.
func (s *Store) Tab(tripID int64) (Tab, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tabs[tripID]
	return t, ok
}

// Writes counts WriteItinerary calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
