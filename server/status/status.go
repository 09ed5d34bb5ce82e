package status

import (
	"encoding/json"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/zzjoey/downxv/server/config"
	"github.com/zzjoey/downxv/server/internal/orchestrator"
	"github.com/zzjoey/downxv/server/sys"
	"github.com/zzjoey/downxv/server/updater"
)

type Response struct {
	Version        string `json:"version"`
	Active         int    `json:"active"`
	Finished       int    `json:"finished"`
	Total          int    `json:"total"`
	Extracting     bool   `json:"extracting"`
	FreeSpace      uint64 `json:"free_space"`
	FreeSpaceHuman string `json:"free_space_human"`
	DownloadPath   string `json:"download_path"`
}

// Provider is the slice of the orchestrator the status surface needs.
type Provider interface {
	Counts() orchestrator.Counts
}

func handler(p Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		downloadPath := config.Instance().Paths.DownloadPath

		free, err := sys.FreeSpace(downloadPath)
		if err != nil {
			// the status surface stays usable without disk figures
			free = 0
		}

		counts := p.Counts()

		res := Response{
			Version:        updater.Version,
			Active:         counts.Active,
			Finished:       counts.Finished,
			Total:          counts.Total,
			Extracting:     counts.Extracting,
			FreeSpace:      free,
			FreeSpaceHuman: humanize.IBytes(free),
			DownloadPath:   downloadPath,
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(res); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func ApplyRouter(p Provider) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", handler(p))
	}
}
