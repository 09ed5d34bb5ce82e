package archive

import (
	"database/sql"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/zzjoey/downxv/server/archive/domain"
	"github.com/zzjoey/downxv/server/archive/repository"
	"github.com/zzjoey/downxv/server/archive/rest"
	"github.com/zzjoey/downxv/server/archive/service"
)

var (
	repo domain.Repository
	svc  domain.Service
	hand domain.RestHandler

	containerOnce sync.Once
	containerErr  error
)

// Container wires the archive layers once and returns the service and
// rest handler over the provided database.
func Container(db *sql.DB) (domain.Service, domain.RestHandler, error) {
	containerOnce.Do(func() {
		repo, containerErr = repository.New(db)
		if containerErr != nil {
			return
		}
		svc = service.New(repo)
		hand = rest.New(svc)
	})
	if containerErr != nil {
		return nil, nil, containerErr
	}
	return svc, hand, nil
}

func ApplyRouter(h domain.RestHandler) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", h.List())
		r.Delete("/{id}", h.Delete())
	}
}
