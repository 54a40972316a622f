// Package idempotency — repository.go выполняет операции с таблицей idempotency_keys.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"recognition-service/internal/db/postgres"
)

type Repository struct {
	db           *pgxpool.Pool
	queryTimeout time.Duration
}

func NewRepository(db *pgxpool.Pool, queryTimeout time.Duration) *Repository {
	return &Repository{db: db, queryTimeout: queryTimeout}
}

// Get возвращает запись по (ключ, актор). Если записи нет — (nil, nil):
// отсутствие записи для идемпотентности не ошибка, а обычный случай.
func (r *Repository) Get(ctx context.Context, key, actorID string) (*Record, error) {
	ctx, cancel := postgres.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `
		SELECT id, idempotency_key, actor_id, action, response, created_at
		FROM idempotency_keys
		WHERE idempotency_key = $1 AND actor_id = $2
	`
	var rec Record
	err := r.db.QueryRow(ctx, query, key, actorID).Scan(
		&rec.ID, &rec.Key, &rec.ActorID, &rec.Action, &rec.Response, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка чтения ключа идемпотентности: %w", err)
	}
	return &rec, nil
}

// Put сохраняет ответ под ключом. Первый писатель побеждает:
// при гонке двух одинаковых запросов повторная вставка молча пропускается,
// в кэше остаётся ответ победителя.
func (r *Repository) Put(ctx context.Context, rec *Record) error {
	ctx, cancel := postgres.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `
		INSERT INTO idempotency_keys (idempotency_key, actor_id, action, response)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (idempotency_key, actor_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, rec.Key, rec.ActorID, rec.Action, rec.Response)
	if err != nil {
		return fmt.Errorf("ошибка сохранения ключа идемпотентности: %w", err)
	}
	return nil
}

// DeleteExpired удаляет записи старше before. Вызывается кроном.
func (r *Repository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	ctx, cancel := postgres.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("ошибка чистки ключей идемпотентности: %w", err)
	}
	return tag.RowsAffected(), nil
}
