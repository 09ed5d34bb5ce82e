package orchestrator

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/zzjoey/downxv/server/internal/downloads"
	"github.com/zzjoey/downxv/server/internal/engine"
)

// extraction is the single-flight probe phase resolving a URL into a
// manifest before any task exists. Once its cancel flag is set, the
// outcome is discarded even if the engine completes afterwards.
type extraction struct {
	url          string
	cookieSource engine.CookieSource
	cancelled    atomic.Bool
}

func newExtraction(url string, cookieSource engine.CookieSource) *extraction {
	return &extraction{url: url, cookieSource: cookieSource}
}

func (e *extraction) cancel() { e.cancelled.Store(true) }

// run probes the URL and reports through the sink unless cancelled.
// It returns the manifest only when tasks should be spawned from it.
func (e *extraction) run(ctx context.Context, eng engine.Engine, sink EventSink) *engine.Manifest {
	slog.Info("extraction started", slog.String("url", e.url))

	manifest, err := eng.Probe(ctx, e.url, engine.ProbeOptions{CookieSource: e.cookieSource})

	if e.cancelled.Load() {
		slog.Info("extraction cancelled, discarding outcome", slog.String("url", e.url))
		return nil
	}

	if err != nil {
		category, message := downloads.Classify(err.Error())
		sink.OnManifestError(category, message)
		return nil
	}

	// A post with only text or images has no playable media.
	if len(manifest.Items) == 0 {
		sink.OnManifestError(
			downloads.CategoryNoMediaFound,
			downloads.CategoryMessage(downloads.CategoryNoMediaFound),
		)
		return nil
	}

	sink.OnManifestReady(manifest)

	return manifest
}
