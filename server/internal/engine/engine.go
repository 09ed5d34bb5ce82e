package engine

import (
	"context"
	"errors"
)

// ErrCancelled is returned by a ProgressFunc to abort an in-flight transfer.
// Fetch propagates it unchanged so callers can tell a cooperative abort
// apart from a real engine failure.
var ErrCancelled = errors.New("transfer cancelled")

// CookieSource selects the browser cookie store handed to the engine.
type CookieSource string

const (
	CookiesNone    CookieSource = "none"
	CookiesChrome  CookieSource = "chrome"
	CookiesFirefox CookieSource = "firefox"
	CookiesEdge    CookieSource = "edge"
)

// MediaItem is one playable item discovered by Probe.
type MediaItem struct {
	Title string `json:"title"`
}

// Manifest is the result of probing a post URL: the ordered items it
// contains. Multi-item posts yield one entry per video.
type Manifest struct {
	Items       []MediaItem `json:"items"`
	ParentTitle string      `json:"parent_title,omitempty"`
}

func (m *Manifest) IsMultiItem() bool { return len(m.Items) > 1 }

// ProgressStatus is the phase a progress event refers to.
type ProgressStatus string

const (
	StatusDownloading    ProgressStatus = "downloading"
	StatusStreamFinished ProgressStatus = "finished"
)

// ProgressEvent is one raw engine tick. TotalBytes is 0 when the engine
// does not know the final size. Speed and ETA are negative when unknown.
type ProgressEvent struct {
	Status          ProgressStatus
	DownloadedBytes int64
	TotalBytes      int64
	SpeedBps        float64
	ETASeconds      int64
}

// ProgressFunc receives engine ticks in the order the engine produced
// them. Returning a non-nil error aborts the transfer.
type ProgressFunc func(ev ProgressEvent) error

type ProbeOptions struct {
	CookieSource CookieSource
}

type FetchOptions struct {
	// Format is the engine-native format/quality selector.
	Format string
	// MergeContainer is the container final streams are merged into.
	MergeContainer string
	// OutputTemplate names files inside the output directory.
	OutputTemplate string
	CookieSource   CookieSource
	// PlaylistItem selects one item of a multi-item post, 1-based.
	// Zero means the whole (single-item) post.
	PlaylistItem int
	Retries      int
	// FragmentRetries and ConcurrentFragments are engine-internal
	// transfer tuning, not orchestrator-managed.
	FragmentRetries     int
	ConcurrentFragments int
}

// Engine resolves post URLs into manifests and performs transfers.
// Errors carry free engine text only; callers must not assume structure.
type Engine interface {
	Probe(ctx context.Context, url string, opts ProbeOptions) (*Manifest, error)
	Fetch(ctx context.Context, url string, opts FetchOptions, outputDir string, onProgress ProgressFunc) error
}
