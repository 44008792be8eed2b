// Package pinghistory maintains the rolling 7-day per-instance ping series
// the actualizer uses to gate uptime-based pruning.
package pinghistory

import "time"

// window is the rolling retention period for ping samples.
const window = 7 * 24 * time.Hour

// readyThreshold is the minimum sample count before uptime becomes
// eligible for pruning decisions.
const readyThreshold = 50

// UptimeFloor is the uptime percentage below which a ready instance is
// pruned by the actualizer.
const UptimeFloor = 30

// Entry is one probe outcome recorded at a point in time.
type Entry struct {
	Timestamp int64 `json:"timestamp"`
	Success   bool  `json:"success"`
}

// History is an append-only per-instance ping series.
type History struct {
	Entries []Entry `json:"ping_history"`
}

// Cleanup drops entries older than the 7-day window relative to now.
// Idempotent.
func (h *History) Cleanup(now time.Time) {
	cutoff := now.Add(-window).Unix()
	kept := h.Entries[:0]
	for _, e := range h.Entries {
		if e.Timestamp > cutoff {
			kept = append(kept, e)
		}
	}
	h.Entries = kept
}

// Push appends a new ping result at now.
func (h *History) Push(now time.Time, success bool) {
	h.Entries = append(h.Entries, Entry{Timestamp: now.Unix(), Success: success})
}

// Uptime returns floor(100*successful/total), clamped to [0,100]. An empty
// series is defined as 100% uptime.
func (h *History) Uptime() int {
	if len(h.Entries) == 0 {
		return 100
	}

	successful := 0
	for _, e := range h.Entries {
		if e.Success {
			successful++
		}
	}

	uptime := (100 * successful) / len(h.Entries)
	if uptime < 0 {
		return 0
	}
	if uptime > 100 {
		return 100
	}
	return uptime
}

// IsReady reports whether the series has enough samples (>=50) to be
// eligible for uptime-based pruning.
func (h *History) IsReady() bool {
	return len(h.Entries) >= readyThreshold
}

// ShouldPrune reports whether this history indicates its instance should
// be removed: ready and below the uptime floor.
func (h *History) ShouldPrune() bool {
	return h.IsReady() && h.Uptime() < UptimeFloor
}
