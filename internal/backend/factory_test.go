package backend

import (
	"context"
	"testing"
	"time"

	"tripplanner/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{DataBackend: "memory", TripsAPIURL: "http://api", APITimeout: time.Second}
	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if got.Type != MemoryBackend || got.TripsAPIURL != "http://api" || got.APITimeout != time.Second {
		t.Errorf("config = %+v", got)
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Error("nil config should fail")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("unknown backend should fail")
	}
}

func TestCreateBackend(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"api", Config{Type: APIBackend, TripsAPIURL: "http://localhost:8000/api/trips", APITimeout: time.Second}, false},
		{"memory", Config{Type: MemoryBackend}, false},
		{"api without url", Config{Type: APIBackend}, true},
		{"unknown", Config{Type: "sqlite"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.CreateBackend(ctx, tt.config)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateBackend: %v", err)
			}
			if res.Backend == nil || res.Cleanup == nil {
				t.Fatalf("result = %+v", res)
			}
			if err := res.Cleanup(); err != nil {
				t.Errorf("Cleanup: %v", err)
			}
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	if len(got) != 2 || got[0] != "api" || got[1] != "memory" {
		t.Errorf("GetBackendTypeStrings() = %v", got)
	}
}
