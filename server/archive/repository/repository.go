package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/zzjoey/downxv/server/archive/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS archive (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	source     TEXT NOT NULL,
	path       TEXT NOT NULL,
	quality    TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

type Repository struct {
	db *sql.DB
}

// Archive implements domain.Repository.
func (r *Repository) Archive(ctx context.Context, entity *domain.Entity) error {
	if entity.Id == "" {
		entity.Id = uuid.NewString()
	}

	_, err := r.db.ExecContext(
		ctx,
		"INSERT INTO archive (id, title, source, path, quality) VALUES (?, ?, ?, ?, ?)",
		entity.Id,
		entity.Title,
		entity.Source,
		entity.Path,
		entity.Quality,
	)
	return err
}

// List implements domain.Repository.
func (r *Repository) List(ctx context.Context, startRowId int, limit int) (*[]domain.Entity, error) {
	rows, err := r.db.QueryContext(
		ctx,
		"SELECT id, title, source, path, quality, created_at FROM archive WHERE rowid > ? ORDER BY created_at DESC LIMIT ?",
		startRowId,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entities := make([]domain.Entity, 0)
	for rows.Next() {
		var e domain.Entity
		if err := rows.Scan(&e.Id, &e.Title, &e.Source, &e.Path, &e.Quality, &e.CreatedAt); err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}

	return &entities, rows.Err()
}

// Delete implements domain.Repository.
func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM archive WHERE id = ?", id)
	return err
}

func New(db *sql.DB) (domain.Repository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}
