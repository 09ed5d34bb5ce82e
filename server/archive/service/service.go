package service

import (
	"context"
	"log/slog"

	"github.com/zzjoey/downxv/server/archive/domain"
)

type service struct {
	repository domain.Repository
}

func (s *service) Archive(ctx context.Context, entity *domain.Entity) error {
	slog.Info("archiving completed download",
		slog.String("title", entity.Title),
		slog.String("source", entity.Source),
	)
	return s.repository.Archive(ctx, entity)
}

func (s *service) List(ctx context.Context, startRowId int, limit int) (*[]domain.Entity, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repository.List(ctx, startRowId, limit)
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.repository.Delete(ctx, id)
}

func New(r domain.Repository) domain.Service {
	return &service{repository: r}
}
