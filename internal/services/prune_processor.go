package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Pruner forgets processed message ids older than a given age.
type Pruner interface {
	PruneProcessed(ctx context.Context, maxAge time.Duration) (int64, error)
}

// PruneProcessorConfig holds configuration for the prune processor
type PruneProcessorConfig struct {
	// Interval is how often to prune (default: 1h)
	Interval time.Duration

	// MaxAge is how long a message id is remembered (default: 7 days)
	MaxAge time.Duration
}

func DefaultPruneProcessorConfig() PruneProcessorConfig {
	return PruneProcessorConfig{
		Interval: time.Hour,
		MaxAge:   7 * 24 * time.Hour,
	}
}

// PruneProcessor keeps the processed message table bounded.
type PruneProcessor struct {
	store  Pruner
	config PruneProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewPruneProcessor(store Pruner, config PruneProcessorConfig) *PruneProcessor {
	return &PruneProcessor{store: store, config: config}
}

// Start begins the pruning loop. Returns an error if already running.
func (p *PruneProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("prune processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Prune processor started",
		"interval", p.config.Interval,
		"max_age", p.config.MaxAge)
	return nil
}

// Stop stops the loop and waits for it to finish.
func (p *PruneProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
	case <-ctx.Done():
		slog.WarnContext(ctx, "Prune processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

func (p *PruneProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *PruneProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.prune(ctx)
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *PruneProcessor) prune(ctx context.Context) {
	n, err := p.store.PruneProcessed(ctx, p.config.MaxAge)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to prune processed messages", "error", err)
		return
	}
	if n > 0 {
		slog.InfoContext(ctx, "Pruned processed messages", "count", n)
	}
}
