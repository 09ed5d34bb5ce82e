package downloads

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzjoey/downxv/server/internal/engine"
)

func downloading(downloaded, total int64) engine.ProgressEvent {
	return engine.ProgressEvent{
		Status:          engine.StatusDownloading,
		DownloadedBytes: downloaded,
		TotalBytes:      total,
		SpeedBps:        -1,
		ETASeconds:      -1,
	}
}

func streamFinished() engine.ProgressEvent {
	return engine.ProgressEvent{Status: engine.StatusStreamFinished}
}

func TestTrackerTwoStreamSequence(t *testing.T) {
	t.Parallel()

	tracker := NewTracker(2)

	// Mid first stream: half of the first 47.5-point share.
	u := tracker.Apply(downloading(50, 100))
	require.True(t, u.HasPercent)
	assert.Equal(t, 23, u.Percent)

	// First stream complete: exactly floor(95/2), independent of bytes.
	u = tracker.Apply(streamFinished())
	require.True(t, u.HasPercent)
	assert.Equal(t, 47, u.Percent)
	require.True(t, u.HasStatus)
	assert.Equal(t, "Downloading audio track...", u.Status)

	// End of second stream: capped at 95, never beyond.
	u = tracker.Apply(downloading(100, 100))
	require.True(t, u.HasPercent)
	assert.Equal(t, 95, u.Percent)

	u = tracker.Apply(streamFinished())
	require.True(t, u.HasPercent)
	assert.Equal(t, 95, u.Percent)
	require.True(t, u.HasStatus)
	assert.Equal(t, "Merging video and audio...", u.Status)
	assert.True(t, tracker.AllStreamsFinished())
}

func TestTrackerSingleStream(t *testing.T) {
	t.Parallel()

	tracker := NewTracker(1)

	u := tracker.Apply(downloading(50, 100))
	require.True(t, u.HasPercent)
	assert.Equal(t, 47, u.Percent)

	u = tracker.Apply(streamFinished())
	assert.Equal(t, 95, u.Percent)
	assert.Equal(t, "Merging video and audio...", u.Status)
}

func TestTrackerUnknownTotalWithholdsPercent(t *testing.T) {
	t.Parallel()

	tracker := NewTracker(2)

	ev := downloading(5*1024*1024, 0)
	ev.SpeedBps = 2 * 1024 * 1024

	u := tracker.Apply(ev)
	assert.False(t, u.HasPercent)
	require.True(t, u.HasStatus)
	assert.Equal(t, "5.0 MB  ·  2.0 MB/s", u.Status)
}

func TestTrackerStatusLineWithSpeedAndEta(t *testing.T) {
	t.Parallel()

	tracker := NewTracker(1)

	ev := downloading(512*1024, 2*1024*1024)
	ev.SpeedBps = 1024 * 1024
	ev.ETASeconds = 90

	u := tracker.Apply(ev)
	require.True(t, u.HasStatus)
	assert.Equal(t, "512 KB / 2.0 MB  ·  1.0 MB/s  ·  ETA 1m 30s", u.Status)
}

func TestTrackerExtraStreamFinishedIsClamped(t *testing.T) {
	t.Parallel()

	tracker := NewTracker(1)
	tracker.Apply(streamFinished())
	u := tracker.Apply(streamFinished())

	assert.Equal(t, 95, u.Percent)
	assert.Equal(t, 1, tracker.StreamsFinished())
}

func TestFormatSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       float64
		expected string
	}{
		{512, "512 B"},
		{2048, "2 KB"},
		{1536 * 1024, "1.5 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatSize(tt.in))
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       int64
		expected string
	}{
		{45, "45s"},
		{192, "3m 12s"},
		{3900, "1h 5m"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatDuration(tt.in))
	}
}
