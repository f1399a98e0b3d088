package operations

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ProgressTracker counts processed items and logs each completed tenth
type ProgressTracker struct {
	Step      string
	Total     int
	Current   int
	StartTime time.Time

	ctx      context.Context
	logger   *slog.Logger
	lastTick int
	mu       sync.Mutex
}

// NewProgressTracker creates a new progress tracker
func NewProgressTracker(ctx context.Context, logger *slog.Logger, step string, total int) *ProgressTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressTracker{
		Step:      step,
		Total:     total,
		StartTime: time.Now(),
		ctx:       ctx,
		logger:    logger,
	}
}

// Increment advances progress by one item
func (p *ProgressTracker) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Current++
	if p.Total <= 0 {
		return
	}
	tick := p.Current * 10 / p.Total
	if tick > p.lastTick {
		p.lastTick = tick
		p.logger.DebugContext(p.ctx, "Progress",
			slog.String("step", p.Step),
			slog.Int("current", p.Current),
			slog.Int("total", p.Total),
			slog.Int("percent", tick*10))
	}
}

// GetProgress returns the current progress state
func (p *ProgressTracker) GetProgress() (current, total int, percentage float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Total > 0 {
		percentage = float64(p.Current) / float64(p.Total) * 100
	}
	return p.Current, p.Total, percentage
}

// IsComplete returns true once every item was counted
func (p *ProgressTracker) IsComplete() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Current >= p.Total
}

// GetElapsedTime returns the elapsed time since start
func (p *ProgressTracker) GetElapsedTime() time.Duration {
	return time.Since(p.StartTime)
}
