package archiver

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/zzjoey/downxv/server/archive"
	"github.com/zzjoey/downxv/server/archive/domain"
	"github.com/zzjoey/downxv/server/config"
)

var ch = make(chan *Message, 1)

type Message = domain.Entity

// Register wires the archive service and starts the consumer feeding
// it. Call once at startup before any download can complete.
func Register(db *sql.DB) error {
	s, _, err := archive.Container(db)
	if err != nil {
		return err
	}

	go func() {
		for m := range ch {
			if err := s.Archive(context.Background(), m); err != nil {
				slog.Error("failed to archive download",
					slog.String("title", m.Title),
					slog.Any("err", err),
				)
			}
		}
	}()

	return nil
}

func Publish(m *Message) {
	if config.Instance().AutoArchive {
		ch <- m
	}
}
