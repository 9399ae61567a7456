package tripapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"tripplanner/internal/core"
)

type recorded struct {
	method string
	path   string
	auth   string
	ctype  string
	body   map[string]any
}

// newBackend serves a fixed status/body and records the last request.
func newBackend(t *testing.T, status int, body string) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.auth = r.Header.Get("Authorization")
		rec.ctype = r.Header.Get("Content-Type")
		rec.body = nil
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			if err := json.Unmarshal(b, &rec.body); err != nil {
				t.Errorf("request body is not JSON: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

type operation struct {
	name       string
	respBody   string
	call       func(c *Client) error
	wantMethod string
	wantPath   string
	wantBody   map[string]any
}

// clientOperations lists one call per client method.
func clientOperations(t *testing.T) []operation {
	ctx := context.Background()
	cost := core.Money{Cents: 5000}
	return []operation{
		{
			name:     "create trip",
			respBody: `{"id":1,"name":"Alps"}`,
			call: func(c *Client) error {
				trip, err := c.CreateTrip(ctx, core.TripInput{Name: "Alps", StartDate: core.NewDate(2024, 1, 5), EndDate: core.NewDate(2024, 1, 9)}, "tok")
				if err == nil && trip.Name != "Alps" {
					t.Errorf("trip name = %q", trip.Name)
				}
				return err
			},
			wantMethod: http.MethodPost,
			wantPath:   "/api/trips/",
			wantBody:   map[string]any{"name": "Alps", "start_date": "2024-01-05", "end_date": "2024-01-09", "group_budget": nil},
		},
		{
			name:     "list trips",
			respBody: `[{"id":1,"name":"Alps"},{"id":2,"name":"Coast"}]`,
			call: func(c *Client) error {
				trips, err := c.GetTrips(ctx, "tok")
				if err == nil && len(trips) != 2 {
					t.Errorf("len(trips) = %d", len(trips))
				}
				return err
			},
			wantMethod: http.MethodGet,
			wantPath:   "/api/trips/",
		},
		{
			name:       "get trip",
			respBody:   `{"id":42,"name":"Alps"}`,
			call:       func(c *Client) error { _, err := c.GetTrip(ctx, 42, "tok"); return err },
			wantMethod: http.MethodGet,
			wantPath:   "/api/trips/42/",
		},
		{
			name:       "update trip",
			respBody:   `{"id":42,"name":"Renamed"}`,
			call:       func(c *Client) error { _, err := c.UpdateTrip(ctx, 42, core.TripInput{Name: "Renamed"}, "tok"); return err },
			wantMethod: http.MethodPatch,
			wantPath:   "/api/trips/42/",
		},
		{
			name:       "delete trip",
			call:       func(c *Client) error { return c.DeleteTrip(ctx, 42, "tok") },
			wantMethod: http.MethodDelete,
			wantPath:   "/api/trips/42/",
		},
		{
			name:       "invite",
			respBody:   `{"detail":"User invited"}`,
			call:       func(c *Client) error { _, err := c.InviteUser(ctx, 42, "b@x.io", "tok"); return err },
			wantMethod: http.MethodPost,
			wantPath:   "/api/trips/42/invite/",
			wantBody:   map[string]any{"email": "b@x.io"},
		},
		{
			name:       "join",
			respBody:   `{"detail":"Joined"}`,
			call:       func(c *Client) error { _, err := c.JoinTrip(ctx, "ABC123", "tok"); return err },
			wantMethod: http.MethodPost,
			wantPath:   "/api/trips/join/",
			wantBody:   map[string]any{"trip_code": "ABC123"},
		},
		{
			name:     "create activity",
			respBody: `{"id":7,"title":"Skiing","estimated_cost":"50.00"}`,
			call: func(c *Client) error {
				_, err := c.CreateActivity(ctx, 42, core.ActivityInput{
					Title: "Skiing", Date: core.NewDate(2024, 1, 5), Category: core.Adventure, EstimatedCost: &cost,
				}, "tok")
				return err
			},
			wantMethod: http.MethodPost,
			wantPath:   "/api/trips/42/activities/",
			wantBody: map[string]any{
				"title": "Skiing", "date": "2024-01-05", "time": nil, "category": "AD",
				"estimated_cost": "50.00", "notes": nil,
			},
		},
		{
			name:       "list activities",
			respBody:   `[]`,
			call:       func(c *Client) error { _, err := c.GetActivities(ctx, 42, "tok"); return err },
			wantMethod: http.MethodGet,
			wantPath:   "/api/trips/42/activities/",
		},
		{
			name:       "update activity",
			respBody:   `{"id":7,"title":"Sledding"}`,
			call:       func(c *Client) error { _, err := c.UpdateActivity(ctx, 42, 7, core.ActivityInput{Title: "Sledding"}, "tok"); return err },
			wantMethod: http.MethodPatch,
			wantPath:   "/api/trips/42/activities/7/",
		},
		{
			name:       "delete activity",
			call:       func(c *Client) error { return c.DeleteActivity(ctx, 42, 7, "tok") },
			wantMethod: http.MethodDelete,
			wantPath:   "/api/trips/42/activities/7/",
		},
		{
			name:       "vote",
			respBody:   `{"vote":true}`,
			call:       func(c *Client) error { _, err := c.VoteActivity(ctx, 42, 7, core.VoteUp, "tok"); return err },
			wantMethod: http.MethodPost,
			wantPath:   "/api/trips/42/activities/7/vote/",
			wantBody:   map[string]any{"vote": true},
		},
	}
}

func TestClientOperationsPathsAndHeaders(t *testing.T) {
	ops := clientOperations(t)
	if len(ops) != 12 {
		t.Fatalf("operations = %d, want 12", len(ops))
	}
	for _, tt := range ops {
		t.Run(tt.name, func(t *testing.T) {
			srv, rec := newBackend(t, http.StatusOK, tt.respBody)
			c := New(srv.URL + "/api/trips")
			if err := tt.call(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.method != tt.wantMethod {
				t.Errorf("method = %s, want %s", rec.method, tt.wantMethod)
			}
			if rec.path != tt.wantPath {
				t.Errorf("path = %s, want %s", rec.path, tt.wantPath)
			}
			if rec.auth != "Bearer tok" {
				t.Errorf("Authorization = %q", rec.auth)
			}
			if rec.ctype != "application/json" {
				t.Errorf("Content-Type = %q", rec.ctype)
			}
			if tt.wantBody != nil {
				for k, want := range tt.wantBody {
					got, ok := rec.body[k]
					if !ok {
						t.Errorf("body missing %q", k)
						continue
					}
					if got != want {
						t.Errorf("body[%q] = %v, want %v", k, got, want)
					}
				}
			}
		})
	}
}

func TestGetTripDerivesGroupsAndBudget(t *testing.T) {
	srv, _ := newBackend(t, http.StatusOK, `{
		"id": 42, "name": "Alps", "start_date": "2024-01-05", "end_date": "2024-01-07",
		"group_budget": "500.00", "created_by": 1, "trip_code": "ABC123",
		"participants": [],
		"activities": [
			{"id": 1, "title": "Skiing", "date": "2024-01-05", "category": "AD", "estimated_cost": 50, "votes": []},
			{"id": 2, "title": "Dinner", "date": "2024-01-05", "category": "FD", "estimated_cost": null, "votes": []}
		]
	}`)
	c := New(srv.URL + "/api/trips/")

	trip, err := c.GetTrip(context.Background(), 42, "tok")
	if err != nil {
		t.Fatalf("GetTrip: %v", err)
	}
	groups := core.GroupByDate(trip.Activities)
	if len(groups) != 1 || groups[0].Key() != "2024-01-05" || len(groups[0].Activities) != 2 {
		t.Fatalf("groups = %+v", groups)
	}
	budget := core.BudgetProjection(trip.Activities)
	if len(budget) != 1 || budget[0].Label != "Skiing" || budget[0].Value.Cents != 5000 {
		t.Fatalf("budget = %+v", budget)
	}
}

func TestUnauthorizedIsSessionExpired(t *testing.T) {
	for _, op := range clientOperations(t) {
		t.Run(op.name, func(t *testing.T) {
			srv, _ := newBackend(t, http.StatusUnauthorized, `{"detail":"Given token not valid for any token type"}`)
			err := op.call(New(srv.URL))
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != MsgSessionExpired {
				t.Fatalf("message = %q", err.Error())
			}
			if !errors.Is(err, ErrSessionExpired) {
				t.Fatal("expected errors.Is(err, ErrSessionExpired)")
			}
			apiErr, ok := AsError(err)
			if !ok || apiErr.Kind != KindSessionExpired || apiErr.Status != http.StatusUnauthorized {
				t.Fatalf("error = %+v", apiErr)
			}
			if string(apiErr.JSON()) != `{"detail":"Session expired. Please login again."}` {
				t.Fatalf("JSON = %s", apiErr.JSON())
			}
		})
	}
}

func TestServerErrorBodyIsForwarded(t *testing.T) {
	bodies := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{"not found", http.StatusNotFound, `{"detail":"Trip not found"}`, "Trip not found"},
		{"field errors", http.StatusBadRequest, `{"email":["User with this email does not exist."]}`, "email: User with this email does not exist."},
		{"non field errors", http.StatusBadRequest, `{"non_field_errors":["Already a participant."]}`, "Already a participant."},
		{"forbidden", http.StatusForbidden, `{"detail":"Only the trip creator can delete this trip."}`, "Only the trip creator can delete this trip."},
		{"plain text", http.StatusBadGateway, `upstream down`, "Bad Gateway"},
	}
	for _, op := range clientOperations(t) {
		for _, tt := range bodies {
			t.Run(op.name+"/"+tt.name, func(t *testing.T) {
				srv, _ := newBackend(t, tt.status, tt.body)

				err := op.call(New(srv.URL))
				apiErr, ok := AsError(err)
				if !ok {
					t.Fatalf("expected *Error, got %v", err)
				}
				if apiErr.Kind != KindServer || apiErr.Status != tt.status {
					t.Fatalf("kind=%v status=%d", apiErr.Kind, apiErr.Status)
				}
				if string(apiErr.Body) != tt.body || string(apiErr.JSON()) != tt.body {
					t.Fatalf("body = %q, want %q", apiErr.Body, tt.body)
				}
				if apiErr.Detail != tt.wantDetail {
					t.Fatalf("detail = %q, want %q", apiErr.Detail, tt.wantDetail)
				}
				if errors.Is(err, ErrNetwork) || errors.Is(err, ErrSessionExpired) {
					t.Fatal("server error must not match transport sentinels")
				}
			})
		}
	}
}

func TestNotFound(t *testing.T) {
	srv, _ := newBackend(t, http.StatusNotFound, `{"detail":"Not found."}`)
	c := New(srv.URL)

	_, err := c.GetTrip(context.Background(), 999, "tok")
	apiErr, ok := AsError(err)
	if !ok || !apiErr.NotFound() {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	for _, op := range clientOperations(t) {
		t.Run(op.name, func(t *testing.T) {
			err := op.call(New(url))
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != MsgNetwork {
				t.Fatalf("message = %q", err.Error())
			}
			if !errors.Is(err, ErrNetwork) {
				t.Fatal("expected errors.Is(err, ErrNetwork)")
			}
		})
	}
}

func TestRequestError(t *testing.T) {
	c := New("http://[::1]:namedport")
	err := c.DeleteTrip(context.Background(), 1, "tok")
	if !errors.Is(err, ErrRequest) {
		t.Fatalf("expected request error, got %v", err)
	}
	if err.Error() != MsgRequest {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestEmptySuccessBody(t *testing.T) {
	srv, _ := newBackend(t, http.StatusNoContent, "")
	c := New(srv.URL)

	if err := c.DeleteActivity(context.Background(), 42, 7, "tok"); err != nil {
		t.Fatalf("DeleteActivity: %v", err)
	}
	body, err := c.VoteActivity(context.Background(), 42, 7, core.VoteDown, "tok")
	if err != nil {
		t.Fatalf("VoteActivity: %v", err)
	}
	if len(body) != 0 {
		t.Fatalf("body = %q", body)
	}
}

func TestBodyHelpers(t *testing.T) {
	b := Body(`{"detail":"Joined trip"}`)
	if b.Detail() != "Joined trip" {
		t.Fatalf("Detail = %q", b.Detail())
	}
	var out map[string]string
	if err := b.Decode(&out); err != nil || out["detail"] != "Joined trip" {
		t.Fatalf("Decode = %v %v", out, err)
	}
	if Body(`[1,2]`).Detail() != "" {
		t.Fatal("expected empty detail for list body")
	}
}
