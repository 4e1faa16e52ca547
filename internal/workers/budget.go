package workers

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/shirou/gopsutil/v4/cpu"

	"ytplayer/internal/logging"
)

// Budget hands out per-consumer thread counts from a shared total.
type Budget struct {
	mu     sync.Mutex
	total  int
	active int
}

// NewBudget builds a budget of total threads. A total of zero means every
// logical core. A negative total is a configuration mistake: it is logged and
// replaced by a single thread. When limitToCores is set the total is clamped
// to the host's logical core count.
func NewBudget(ctx context.Context, total int, limitToCores bool, logger *slog.Logger) *Budget {
	logger = logging.NewComponentLogger(logger, "workers")
	cores := LogicalCores(ctx)
	switch {
	case total < 0:
		logging.WarnWithContext(logger, "invalid thread budget; using a single thread", "thread_budget_invalid",
			logging.Int("configured", total),
			logging.String(logging.FieldErrorHint, "set workers.thread_budget to 0 or a positive count"),
			logging.String(logging.FieldImpact, "transcodes run single-threaded"),
		)
		total = 1
	case total == 0:
		total = cores
	}
	if limitToCores && total > cores {
		logger.Info("thread budget clamped to logical cores",
			logging.Int("configured", total),
			logging.Int("cores", cores),
		)
		total = cores
	}
	if total < 1 {
		total = 1
	}
	logger.Debug("thread budget ready", logging.Int("total", total))
	return &Budget{total: total}
}

// Acquire registers a consumer and returns its share, max(1, total/active).
func (b *Budget) Acquire() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active++
	return share(b.total, b.active)
}

// Release deregisters a consumer. Extra calls never push the count negative.
func (b *Budget) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active > 0 {
		b.active--
	}
}

// Threads reports the share a consumer would receive right now without
// registering one. With no consumers it returns the whole budget.
func (b *Budget) Threads() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return share(b.total, b.active)
}

// Active returns the number of registered consumers.
func (b *Budget) Active() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// Total returns the configured budget after normalization.
func (b *Budget) Total() int {
	return b.total
}

func share(total, active int) int {
	if active < 1 {
		active = 1
	}
	if n := total / active; n > 1 {
		return n
	}
	return 1
}

// LogicalCores reports the host's logical CPU count, falling back to the Go
// runtime's view when the platform query fails.
func LogicalCores(ctx context.Context) int {
	if ctx == nil {
		ctx = context.Background()
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}
