// File: timer.go
// Title: Performance Timer
// Description: Measures how long an operation such as a parse run took and
//              logs the duration on completion.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with performance timing
// - 2026-10-19 v0.2.0: Reduced to Stop/StopWithError

package log

import (
	"time"
)

// Timer measures one operation such as an engine run and logs its duration
// at debug level when stopped
type Timer struct {
	logger    *Logger
	operation string
	start     time.Time
	fields    Fields
	stopped   bool
}

func newTimer(logger *Logger, operation string) *Timer {
	return &Timer{
		logger:    logger,
		operation: operation,
		start:     time.Now(),
		fields:    Fields{},
	}
}

// WithField adds a field to the completion entry
func (t *Timer) WithField(key string, value interface{}) *Timer {
	t.fields[key] = value
	return t
}

// Stop logs "<operation> completed" and returns the elapsed time. Only the
// first call logs; later calls return 0.
func (t *Timer) Stop() time.Duration {
	elapsed, ok := t.finish()
	if ok && t.logger != nil {
		t.logger.log(LevelDebug, t.operation+" completed", nil, t.completionFields(elapsed))
	}
	return elapsed
}

// StopWithError logs "<operation> failed" with err at error level
func (t *Timer) StopWithError(err error) time.Duration {
	elapsed, ok := t.finish()
	if ok && t.logger != nil {
		fields := t.completionFields(elapsed)
		fields["success"] = false
		t.logger.ErrorWithErr(t.operation+" failed", err, fields)
	}
	return elapsed
}

func (t *Timer) finish() (time.Duration, bool) {
	if t.stopped {
		return 0, false
	}
	t.stopped = true
	return time.Since(t.start), true
}

func (t *Timer) completionFields(elapsed time.Duration) Fields {
	return t.fields.Merge(Fields{
		"operation":   t.operation,
		"duration_ms": float64(elapsed.Nanoseconds()) / 1e6,
	})
}
