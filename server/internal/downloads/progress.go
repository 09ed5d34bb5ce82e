package downloads

import (
	"fmt"
	"strings"

	"github.com/zzjoey/downxv/server/internal/engine"
)

// The final few percent are reserved for post-processing (merge + move
// out of staging), so a transfer alone never reports fully done.
const transferShare = 95.0

const (
	statusMerging    = "Merging video and audio..."
	statusAudioTrack = "Downloading audio track..."

	statusSeparator = "  ·  "
)

// ProgressUpdate is the aggregated result of one raw engine tick.
// Percent or Status may individually be absent, e.g. a tick with an
// unknown total size moves the status line but not the bar.
type ProgressUpdate struct {
	Percent    int
	HasPercent bool
	Status     string
	HasStatus  bool
}

// Tracker folds raw per-stream engine ticks into a single 0-95 percent
// for one task. A format that fetches video and audio separately counts
// as two streams, each getting an equal share of the transfer points.
type Tracker struct {
	totalStreams    int
	streamsFinished int
}

func NewTracker(totalStreams int) *Tracker {
	if totalStreams < 1 {
		totalStreams = 1
	}
	return &Tracker{totalStreams: totalStreams}
}

func (t *Tracker) TotalStreams() int    { return t.totalStreams }
func (t *Tracker) StreamsFinished() int { return t.streamsFinished }

// AllStreamsFinished reports whether the task has entered the merge
// phase.
func (t *Tracker) AllStreamsFinished() bool {
	return t.streamsFinished >= t.totalStreams
}

// Apply folds one engine tick into the tracker and returns what should
// be surfaced for it.
func (t *Tracker) Apply(ev engine.ProgressEvent) ProgressUpdate {
	switch ev.Status {
	case engine.StatusDownloading:
		return t.applyDownloading(ev)
	case engine.StatusStreamFinished:
		return t.applyStreamFinished()
	}
	return ProgressUpdate{}
}

func (t *Tracker) applyDownloading(ev engine.ProgressEvent) ProgressUpdate {
	parts := []string{}

	if ev.TotalBytes > 0 {
		fraction := float64(ev.DownloadedBytes) / float64(ev.TotalBytes)
		share := transferShare / float64(t.totalStreams)
		overall := int(float64(t.streamsFinished)*share + fraction*share)

		parts = append(parts, fmt.Sprintf(
			"%s / %s",
			FormatSize(float64(ev.DownloadedBytes)),
			FormatSize(float64(ev.TotalBytes)),
		))
		if ev.SpeedBps > 0 {
			parts = append(parts, FormatSize(ev.SpeedBps)+"/s")
		}
		if ev.ETASeconds >= 0 {
			parts = append(parts, "ETA "+FormatDuration(ev.ETASeconds))
		}

		return ProgressUpdate{
			Percent:    min(overall, int(transferShare)),
			HasPercent: true,
			Status:     strings.Join(parts, statusSeparator),
			HasStatus:  true,
		}
	}

	// Total size unknown: report bytes so far, hold the bar still.
	parts = append(parts, FormatSize(float64(ev.DownloadedBytes)))
	if ev.SpeedBps > 0 {
		parts = append(parts, FormatSize(ev.SpeedBps)+"/s")
	}

	return ProgressUpdate{
		Status:    strings.Join(parts, statusSeparator),
		HasStatus: true,
	}
}

func (t *Tracker) applyStreamFinished() ProgressUpdate {
	if t.streamsFinished < t.totalStreams {
		t.streamsFinished++
	}

	done := int(float64(t.streamsFinished) * transferShare / float64(t.totalStreams))

	update := ProgressUpdate{
		Percent:    min(done, int(transferShare)),
		HasPercent: true,
	}

	switch {
	case t.streamsFinished >= t.totalStreams:
		update.Status = statusMerging
		update.HasStatus = true
	case t.totalStreams == 2 && t.streamsFinished == 1:
		update.Status = statusAudioTrack
		update.HasStatus = true
	}

	return update
}

// FormatSize renders a byte count with binary units, one decimal place
// for MB and above.
func FormatSize(b float64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", b/(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", b/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.0f KB", b/(1<<10))
	default:
		return fmt.Sprintf("%.0f B", b)
	}
}

// FormatDuration renders seconds coarsened to the two largest non-zero
// units: "45s", "3m 12s", "1h 5m".
func FormatDuration(seconds int64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}

	m, s := seconds/60, seconds%60
	if m < 60 {
		return fmt.Sprintf("%dm %ds", m, s)
	}

	h, m := m/60, m%60
	return fmt.Sprintf("%dh %dm", h, m)
}
