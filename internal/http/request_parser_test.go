package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPathID(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int64
		wantErr bool
	}{
		{"valid", "42", 42, false},
		{"padded", " 7 ", 7, false},
		{"zero", "0", 0, true},
		{"negative", "-3", 0, true},
		{"not a number", "abc", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/trips/x", nil)
			req.SetPathValue("id", tt.value)

			got, err := PathID(req, "id")
			if (err != nil) != tt.wantErr {
				t.Fatalf("PathID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("PathID() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseVote(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"up", true, false},
		{"UP", true, false},
		{"true", true, false},
		{"1", true, false},
		{"down", false, false},
		{"false", false, false},
		{"0", false, false},
		{"", false, true},
		{"maybe", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVote(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVote(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseVote(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"id": "123", "name": "test", "amount": 42.5}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !parser.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}

	if id := parser.Get("id"); id != "123" {
		t.Errorf("Get('id') = %q, want '123'", id)
	}

	if name := parser.Get("name"); name != "test" {
		t.Errorf("Get('name') = %q, want 'test'", name)
	}

	if amount := parser.Get("amount"); amount != "42.5" {
		t.Errorf("Get('amount') = %q, want '42.5'", amount)
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "id=456&name=form+test&value=100"
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if parser.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}

	if id := parser.Get("id"); id != "456" {
		t.Errorf("Get('id') = %q, want '456'", id)
	}

	if name := parser.Get("name"); name != "form test" {
		t.Errorf("Get('name') = %q, want 'form test'", name)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(""))

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if val := parser.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestParseBodyOrFail(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"title": broken`))
	req.Header.Set("Content-Type", "application/json")

	if _, fail := ParseBodyOrFail(req); fail == nil {
		t.Fatal("Expected error response for malformed JSON")
	}

	req = httptest.NewRequest(http.MethodPost, "/test", strings.NewReader("email=a%40b.com"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	p, fail := ParseBodyOrFail(req)
	if fail != nil {
		t.Fatal("Expected nil for valid form, got error response")
	}
	if p.Get("email") != "a@b.com" {
		t.Errorf("Get('email') = %q", p.Get("email"))
	}
}

func TestRequestBodyParser_ActivityForm(t *testing.T) {
	body := `{"title": " Museum ", "date": "2024-05-02", "time": "10:30", "category": "ST", "estimated_cost": 12.5, "notes": "tickets\u0007"}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	p, fail := ParseBodyOrFail(req)
	if fail != nil {
		t.Fatal("unexpected parse failure")
	}
	form := p.ActivityForm()
	if form.Title != "Museum" || form.Date != "2024-05-02" || form.Time != "10:30" || form.Category != "ST" {
		t.Errorf("ActivityForm() = %+v", form)
	}
	if form.Cost != "12.5" {
		t.Errorf("Cost = %q, want 12.5", form.Cost)
	}
	if form.Notes != "tickets" {
		t.Errorf("Notes = %q, control characters not stripped", form.Notes)
	}
}

func TestRequestBodyParser_TripForm(t *testing.T) {
	body := "name=Alps&start_date=2024-01-05&end_date=2024-01-09&group_budget=1000"
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p, fail := ParseBodyOrFail(req)
	if fail != nil {
		t.Fatal("unexpected parse failure")
	}
	form := p.TripForm()
	if form.Name != "Alps" || form.StartDate != "2024-01-05" || form.EndDate != "2024-01-09" || form.Budget != "1000" {
		t.Errorf("TripForm() = %+v", form)
	}
}
