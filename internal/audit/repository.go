// Package audit — repository.go пишет записи журнала в таблицу audit_events.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"recognition-service/internal/db/postgres"
)

// Repository — приёмник журнала на PostgreSQL. Таблица append-only:
// никаких UPDATE/DELETE, только вставка и чтение для дашбордов.
type Repository struct {
	db           *pgxpool.Pool
	queryTimeout time.Duration
}

func NewRepository(db *pgxpool.Pool, queryTimeout time.Duration) *Repository {
	return &Repository{db: db, queryTimeout: queryTimeout}
}

// Append вставляет одну запись журнала.
func (r *Repository) Append(ctx context.Context, e Entry) error {
	ctx, cancel := postgres.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	var meta []byte
	if e.Metadata != nil {
		var err error
		meta, err = json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("ошибка сериализации метаданных: %w", err)
		}
	}

	query := `
		INSERT INTO audit_events (channel, event_code, actor_hash, target_id, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.Exec(ctx, query, e.Channel, e.EventCode, e.ActorHash, e.TargetID, meta); err != nil {
		return fmt.Errorf("ошибка записи в журнал: %w", err)
	}
	return nil
}
