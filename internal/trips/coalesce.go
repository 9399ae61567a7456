package trips

import (
	"context"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"tripplanner/internal/core"
	"tripplanner/internal/tripapi"
)

// CoalescingReader merges identical concurrent trip reads into one backend
// call. Nothing is cached: a read that starts after the shared one finished
// goes to the backend again.
//
// Reads are keyed by generation. Invalidate starts a new generation, so a
// read issued after it never joins a flight that began before it.
type CoalescingReader struct {
	TripReader
	group      singleflight.Group
	generation atomic.Uint64
}

// NewCoalescingReader wraps r.
func NewCoalescingReader(r TripReader) *CoalescingReader {
	return &CoalescingReader{TripReader: r}
}

// Invalidate stops reads issued from now on from sharing older flights.
func (c *CoalescingReader) Invalidate() {
	c.generation.Add(1)
}

// GetTrip shares one in-flight request between callers asking for the same
// trip with the same token. The shared request is not cancelled by any one
// caller; each caller stops waiting when its own ctx is done.
func (c *CoalescingReader) GetTrip(ctx context.Context, tripID int64, token string) (core.Trip, error) {
	key := strconv.FormatUint(c.generation.Load(), 10) + "|" +
		strconv.FormatInt(tripID, 10) + "|" + token
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.TripReader.GetTrip(shared, tripID, token)
	})
	select {
	case <-ctx.Done():
		return core.Trip{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return core.Trip{}, res.Err
		}
		return res.Val.(core.Trip), nil
	}
}

// Coalesced is a Backend whose trip reads go through a CoalescingReader.
// Every write invalidates the reader, so the reload that follows a
// mutation always reaches the backend.
type Coalesced struct {
	Backend
	reader *CoalescingReader
}

// Coalesce wraps b so that concurrent GetTrip calls are merged.
func Coalesce(b Backend) *Coalesced {
	return &Coalesced{Backend: b, reader: NewCoalescingReader(b)}
}

func (c *Coalesced) GetTrip(ctx context.Context, tripID int64, token string) (core.Trip, error) {
	return c.reader.GetTrip(ctx, tripID, token)
}

func (c *Coalesced) CreateTrip(ctx context.Context, in core.TripInput, token string) (core.Trip, error) {
	defer c.reader.Invalidate()
	return c.Backend.CreateTrip(ctx, in, token)
}

func (c *Coalesced) UpdateTrip(ctx context.Context, tripID int64, in core.TripInput, token string) (core.Trip, error) {
	defer c.reader.Invalidate()
	return c.Backend.UpdateTrip(ctx, tripID, in, token)
}

func (c *Coalesced) DeleteTrip(ctx context.Context, tripID int64, token string) error {
	defer c.reader.Invalidate()
	return c.Backend.DeleteTrip(ctx, tripID, token)
}

func (c *Coalesced) InviteUser(ctx context.Context, tripID int64, email, token string) (tripapi.Body, error) {
	defer c.reader.Invalidate()
	return c.Backend.InviteUser(ctx, tripID, email, token)
}

func (c *Coalesced) JoinTrip(ctx context.Context, tripCode, token string) (tripapi.Body, error) {
	defer c.reader.Invalidate()
	return c.Backend.JoinTrip(ctx, tripCode, token)
}

func (c *Coalesced) CreateActivity(ctx context.Context, tripID int64, in core.ActivityInput, token string) (core.Activity, error) {
	defer c.reader.Invalidate()
	return c.Backend.CreateActivity(ctx, tripID, in, token)
}

func (c *Coalesced) UpdateActivity(ctx context.Context, tripID, activityID int64, in core.ActivityInput, token string) (core.Activity, error) {
	defer c.reader.Invalidate()
	return c.Backend.UpdateActivity(ctx, tripID, activityID, in, token)
}

func (c *Coalesced) DeleteActivity(ctx context.Context, tripID, activityID int64, token string) error {
	defer c.reader.Invalidate()
	return c.Backend.DeleteActivity(ctx, tripID, activityID, token)
}

func (c *Coalesced) VoteActivity(ctx context.Context, tripID, activityID int64, vote bool, token string) (tripapi.Body, error) {
	defer c.reader.Invalidate()
	return c.Backend.VoteActivity(ctx, tripID, activityID, vote, token)
}
