package rest

import (
	"github.com/go-chi/chi/v5"

	"github.com/zzjoey/downxv/server/internal/orchestrator"
)

type ContainerArgs struct {
	Orchestrator *orchestrator.Orchestrator
}

func ApplyRouter(args *ContainerArgs) func(chi.Router) {
	var (
		s = ProvideService(args)
		h = ProvideHandler(s)
	)

	return func(r chi.Router) {
		r.Post("/submit", h.Submit)
		r.Post("/extraction/cancel", h.CancelExtraction)
		r.Get("/tasks", h.Tasks)
		r.Get("/task/{id}", h.Task)
		r.Delete("/task/{id}", h.Dismiss)
		r.Post("/clear", h.ClearFinished)
		r.Get("/update", h.CheckUpdate)
		r.Post("/update/downloader", h.UpdateDownloader)
	}
}
