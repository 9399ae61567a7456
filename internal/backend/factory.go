package backend

import (
	"context"
	"fmt"
	"log/slog"

	"tripplanner/internal/tripapi"
	"tripplanner/internal/trips"
	"tripplanner/internal/trips/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend. Trip reads are coalesced
// for both backends.
func (f *DefaultFactory) CreateBackend(_ context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case APIBackend:
		return f.createAPIBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createAPIBackend(config Config) (*BackendResult, error) {
	client := tripapi.New(config.TripsAPIURL,
		tripapi.WithHTTPClient(tripapi.NewHTTPClient(config.APITimeout)),
		tripapi.WithLogger(f.logger))

	f.logger.Info("Using trips API backend",
		"base_url", client.BaseURL(),
		"timeout", config.APITimeout)

	return &BackendResult{
		Backend: trips.Coalesce(client),
		Cleanup: func() error { return nil },
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	f.logger.Warn("Using in-memory trips backend; data is lost on restart")
	return &BackendResult{
		Backend: trips.Coalesce(memory.New()),
		Cleanup: func() error { return nil },
	}, nil
}
