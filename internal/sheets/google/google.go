package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"tripplanner/internal/cache"
	"tripplanner/internal/core"
	ports "tripplanner/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	titleCacheSize = 512
	titleCacheTTL  = 10 * time.Minute
)

// Client exports itineraries into one spreadsheet, one tab per trip.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string

	// sheet ids by trip id; tabs are renamed in place, so the id stays valid.
	sheetIDs cache.Cache[int64]
	// serialises tab creation so two exports of one trip cannot both add it.
	createMu sync.Mutex
}

var _ ports.ItineraryStore = (*Client)(nil)

// Credentials selects the service account used for the Sheets API.
// JSON wins over File.
type Credentials struct {
	JSON string
	File string
}

func New(ctx context.Context, spreadsheetID string, creds Credentials) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID), nil
}

// NewWithService wraps an existing service, e.g. one pointed at a test endpoint.
func NewWithService(svc *gsheet.Service, spreadsheetID string) *Client {
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetIDs:      cache.NewLRUCache[int64](titleCacheSize, titleCacheTTL),
	}
}

func newSheetsService(ctx context.Context, creds Credentials) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(creds.JSON) != "":
		credentialsJSON = []byte(creds.JSON)
	case strings.TrimSpace(creds.File) != "":
		data, err := os.ReadFile(creds.File)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.DebugContext(ctx, "Creating Google Sheets service",
		"component", "sheets",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// WriteItinerary replaces the trip's tab with its current itinerary and
// returns the A1 reference of the written range.
func (c *Client) WriteItinerary(ctx context.Context, trip core.Trip) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	title := ports.SheetTitle(trip)
	if err := c.ensureSheet(ctx, trip.ID, title); err != nil {
		return "", err
	}

	clearRange := fmt.Sprintf("'%s'!A:G", title)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("clear %s: %w", clearRange, err)
	}

	rows := ports.ItineraryRows(trip)
	ref := ports.RangeRef(title, len(rows))
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, ref, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", ref, err)
	}

	slog.InfoContext(ctx, "Itinerary written",
		"component", "sheets",
		"trip_id", trip.ID,
		"sheet_ref", ref,
		"rows", len(rows),
		"cached_tabs", c.sheetIDs.Len())
	return ref, nil
}

// DeleteItinerary removes the trip's tab if one exists.
func (c *Client) DeleteItinerary(ctx context.Context, tripID int64) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	sheetID, _, found, err := c.lookup(ctx, tripID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{DeleteSheet: &gsheet.DeleteSheetRequest{
			SheetId:         sheetID,
			ForceSendFields: []string{"SheetId"},
		}}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("delete sheet for trip %d: %w", tripID, err)
	}
	c.sheetIDs.Delete(cacheKey(tripID))
	slog.InfoContext(ctx, "Itinerary deleted", "component", "sheets", "trip_id", tripID)
	return nil
}

// ensureSheet makes sure a tab titled title exists for the trip, adding or
// renaming it as needed.
func (c *Client) ensureSheet(ctx context.Context, tripID int64, title string) error {
	c.createMu.Lock()
	defer c.createMu.Unlock()

	sheetID, current, found, err := c.lookup(ctx, tripID)
	if err != nil {
		return err
	}

	var req *gsheet.Request
	switch {
	case !found:
		req = &gsheet.Request{AddSheet: &gsheet.AddSheetRequest{
			Properties: &gsheet.SheetProperties{Title: title},
		}}
	case current != title:
		req = &gsheet.Request{UpdateSheetProperties: &gsheet.UpdateSheetPropertiesRequest{
			Properties: &gsheet.SheetProperties{
				SheetId:         sheetID,
				Title:           title,
				ForceSendFields: []string{"SheetId"},
			},
			Fields:     "title",
		}}
	default:
		return nil
	}

	resp, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{req},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("prepare sheet %q: %w", title, err)
	}
	if !found && len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		c.sheetIDs.Set(cacheKey(tripID), resp.Replies[0].AddSheet.Properties.SheetId)
	}
	return nil
}

// lookup finds the tab of a trip by its title suffix.
func (c *Client) lookup(ctx context.Context, tripID int64) (sheetID int64, title string, found bool, err error) {
	suffix := ports.TitleSuffix(tripID)
	resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties(sheetId,title)").Context(ctx).Do()
	if err != nil {
		return 0, "", false, fmt.Errorf("list sheets: %w", err)
	}

	cached, hasCached := c.sheetIDs.Get(cacheKey(tripID))
	for _, s := range resp.Sheets {
		if s.Properties == nil {
			continue
		}
		p := s.Properties
		if (hasCached && p.SheetId == cached) || strings.HasSuffix(p.Title, suffix) {
			c.sheetIDs.Set(cacheKey(tripID), p.SheetId)
			return p.SheetId, p.Title, true, nil
		}
	}
	c.sheetIDs.Delete(cacheKey(tripID))
	return 0, "", false, nil
}

func cacheKey(tripID int64) string {
	return fmt.Sprintf("trip:%d", tripID)
}
