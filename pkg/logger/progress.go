package logger

import (
	"fmt"
	"sync"
	"time"
)

// ProgressReporter logs progress of a batch of listing lookups
type ProgressReporter struct {
	mu          sync.Mutex
	total       int
	current     int
	succeeded   int
	description string
	startTime   time.Time
	lastUpdate  time.Time
	interval    time.Duration
	logger      *Logger
}

// NewProgressReporter creates a reporter that logs at most every interval,
// and always on completion
func NewProgressReporter(log *Logger, total int, description string, interval time.Duration) *ProgressReporter {
	if log == nil {
		log = GetLogger()
	}
	now := time.Now()
	return &ProgressReporter{
		total:       total,
		description: description,
		startTime:   now,
		lastUpdate:  now,
		interval:    interval,
		logger:      log.WithComponent("progress"),
	}
}

// Record counts one finished item
func (pr *ProgressReporter) Record(success bool) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	pr.current++
	if success {
		pr.succeeded++
	}

	now := time.Now()
	if now.Sub(pr.lastUpdate) >= pr.interval || pr.current >= pr.total {
		pr.reportProgress()
		pr.lastUpdate = now
	}
}

// Snapshot returns finished and successful counts
func (pr *ProgressReporter) Snapshot() (current, succeeded, total int) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return pr.current, pr.succeeded, pr.total
}

// reportProgress must be called with the lock held
func (pr *ProgressReporter) reportProgress() {
	var percentage float64
	if pr.total > 0 {
		percentage = float64(pr.current) / float64(pr.total) * 100
	}
	elapsed := time.Since(pr.startTime)

	pr.logger.WithFields(map[string]interface{}{
		"current":   pr.current,
		"succeeded": pr.succeeded,
		"total":     pr.total,
		"elapsed":   elapsed.Round(time.Millisecond).String(),
	}).Info(fmt.Sprintf("%s: %d/%d (%.1f%%)", pr.description, pr.current, pr.total, percentage))
}
