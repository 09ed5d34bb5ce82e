package domain

import (
	"context"
	"net/http"
	"time"
)

// Entity is one completed download kept for history.
type Entity struct {
	Id        string    `json:"id"`
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	Path      string    `json:"path"`
	Quality   string    `json:"quality"`
	CreatedAt time.Time `json:"created_at"`
}

type Repository interface {
	Archive(ctx context.Context, entity *Entity) error
	List(ctx context.Context, startRowId int, limit int) (*[]Entity, error)
	Delete(ctx context.Context, id string) error
}

type Service interface {
	Archive(ctx context.Context, entity *Entity) error
	List(ctx context.Context, startRowId int, limit int) (*[]Entity, error)
	Delete(ctx context.Context, id string) error
}

type RestHandler interface {
	List() http.HandlerFunc
	Delete() http.HandlerFunc
}
