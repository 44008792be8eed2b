package pinghistory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHistory_UptimeEmptyIs100(t *testing.T) {
	h := &History{}
	assert.Equal(t, 100, h.Uptime())
}

func TestHistory_UptimeComputation(t *testing.T) {
	h := &History{}
	now := time.Now()
	for i := 0; i < 14; i++ {
		h.Push(now, true)
	}
	for i := 0; i < 36; i++ {
		h.Push(now, false)
	}
	assert.Equal(t, 28, h.Uptime())
}

func TestHistory_Cleanup(t *testing.T) {
	now := time.Now()
	h := &History{}
	h.Push(now.Add(-8*24*time.Hour), true)
	h.Push(now.Add(-6*24*time.Hour), true)
	h.Push(now, false)

	h.Cleanup(now)

	assert.Len(t, h.Entries, 2)
	for _, e := range h.Entries {
		assert.Greater(t, e.Timestamp, now.Add(-7*24*time.Hour).Unix())
	}
}

func TestHistory_CleanupIdempotent(t *testing.T) {
	now := time.Now()
	h := &History{}
	h.Push(now, true)
	h.Push(now.Add(-10*24*time.Hour), true)

	h.Cleanup(now)
	first := len(h.Entries)
	h.Cleanup(now)
	assert.Equal(t, first, len(h.Entries))
}

func TestHistory_IsReadyBoundary(t *testing.T) {
	now := time.Now()
	h := &History{}
	for i := 0; i < 49; i++ {
		h.Push(now, true)
	}
	assert.False(t, h.IsReady())

	h.Push(now, true)
	assert.True(t, h.IsReady())
}

func TestHistory_ShouldPruneBoundary(t *testing.T) {
	now := time.Now()

	notReady := &History{}
	for i := 0; i < 49; i++ {
		notReady.Push(now, false)
	}
	assert.False(t, notReady.ShouldPrune(), "not ready yet, even at 0%% uptime")

	exactlyThirty := &History{}
	for i := 0; i < 15; i++ {
		exactlyThirty.Push(now, true)
	}
	for i := 0; i < 35; i++ {
		exactlyThirty.Push(now, false)
	}
	assert.Equal(t, 30, exactlyThirty.Uptime())
	assert.False(t, exactlyThirty.ShouldPrune(), "uptime exactly 30 is not removed")

	belowThirty := &History{}
	for i := 0; i < 14; i++ {
		belowThirty.Push(now, true)
	}
	for i := 0; i < 36; i++ {
		belowThirty.Push(now, false)
	}
	assert.Equal(t, 28, belowThirty.Uptime())
	assert.True(t, belowThirty.ShouldPrune(), "uptime 29/28 below floor is removed once ready")
}
