package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateEvidenceWindow(t *testing.T) {
	start := testNow

	tests := []struct {
		name       string
		elapsed    time.Duration
		minMinutes int
		canUpload  bool
		remaining  string
		elapsedStr string
	}{
		{name: "just started", elapsed: 0, minMinutes: 3, canUpload: false, remaining: "03:00", elapsedStr: "00:00"},
		{name: "one second short", elapsed: 2*time.Minute + 59*time.Second, minMinutes: 3, canUpload: false, remaining: "00:01", elapsedStr: "02:59"},
		{name: "exactly at threshold", elapsed: 3 * time.Minute, minMinutes: 3, canUpload: true, remaining: "00:00", elapsedStr: "03:00"},
		{name: "long after", elapsed: 75 * time.Minute, minMinutes: 3, canUpload: true, remaining: "00:00", elapsedStr: "75:00"},
		{name: "clock skew clamps to zero", elapsed: -30 * time.Second, minMinutes: 3, canUpload: false, remaining: "03:00", elapsedStr: "00:00"},
		{name: "no minimum", elapsed: 0, minMinutes: 0, canUpload: true, remaining: "00:00", elapsedStr: "00:00"},
		{name: "negative minimum", elapsed: 10 * time.Second, minMinutes: -1, canUpload: true, remaining: "00:00", elapsedStr: "00:10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := EvaluateEvidenceWindow(start.Add(tt.elapsed), &start, tt.minMinutes)
			assert.Equal(t, tt.canUpload, w.CanUpload)
			assert.Equal(t, tt.remaining, w.Remaining)
			assert.Equal(t, tt.elapsedStr, w.Elapsed)
			assert.GreaterOrEqual(t, w.ElapsedSeconds, int64(0))
			assert.LessOrEqual(t, w.ProgressPercent, 100.0)
		})
	}
}

func TestEvaluateEvidenceWindow_Progress(t *testing.T) {
	start := testNow
	w := EvaluateEvidenceWindow(start.Add(90*time.Second), &start, 3)
	assert.InDelta(t, 50.0, w.ProgressPercent, 0.001)
	assert.Equal(t, int64(90), w.RemainingSeconds)
}

func TestEvaluateEvidenceWindow_NotStarted(t *testing.T) {
	w := EvaluateEvidenceWindow(testNow, nil, 3)
	assert.False(t, w.CanUpload)
	assert.Equal(t, "00:00", w.Elapsed)
}
