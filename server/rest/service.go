package rest

import (
	"context"
	"errors"

	"github.com/zzjoey/downxv/server/config"
	"github.com/zzjoey/downxv/server/internal/downloads"
	"github.com/zzjoey/downxv/server/internal/engine"
	"github.com/zzjoey/downxv/server/internal/orchestrator"
	"github.com/zzjoey/downxv/server/updater"
	"github.com/zzjoey/downxv/server/urlcheck"
)

// ErrInvalidURL is reported before any extraction is attempted.
var ErrInvalidURL = errors.New(downloads.CategoryMessage(downloads.CategoryInvalidUrl))

type SubmitPayload struct {
	URL          string `json:"url"`
	SavePath     string `json:"save_path,omitempty"`
	Quality      string `json:"quality,omitempty"`
	CookieSource string `json:"cookie_source,omitempty"`
}

type Service struct {
	orchestrator *orchestrator.Orchestrator
}

func NewService(o *orchestrator.Orchestrator) *Service {
	return &Service{orchestrator: o}
}

// Submit validates the URL, fills unset options from the config and
// hands the request to the orchestrator.
func (s *Service) Submit(ctx context.Context, payload SubmitPayload) error {
	normalized, err := urlcheck.Normalize(payload.URL)
	if err != nil {
		return ErrInvalidURL
	}

	conf := config.Instance()

	if payload.SavePath == "" {
		payload.SavePath = conf.Paths.DownloadPath
	}
	if payload.Quality == "" {
		payload.Quality = conf.Downloads.Quality
	}
	if payload.CookieSource == "" {
		payload.CookieSource = conf.Downloads.CookieSource
	}

	return s.orchestrator.Submit(ctx, orchestrator.SubmitRequest{
		URL:          normalized,
		SavePath:     payload.SavePath,
		Quality:      payload.Quality,
		CookieSource: engine.CookieSource(payload.CookieSource),
	})
}

func (s *Service) CancelExtraction() {
	s.orchestrator.CancelExtraction()
}

func (s *Service) Tasks() []downloads.Snapshot {
	return s.orchestrator.Tasks()
}

func (s *Service) Task(id string) (downloads.Snapshot, error) {
	return s.orchestrator.Task(id)
}

func (s *Service) Dismiss(id string) {
	s.orchestrator.Dismiss(id)
}

func (s *Service) ClearFinished() {
	s.orchestrator.ClearFinished()
}

func (s *Service) CheckUpdate(ctx context.Context) (*updater.Release, bool, error) {
	return updater.CheckLatest(ctx)
}

func (s *Service) UpdateDownloader(ctx context.Context) error {
	return updater.UpdateExecutable(ctx)
}
