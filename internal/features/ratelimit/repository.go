// Package ratelimit — repository.go выполняет операции с таблицей rate_limits.
// Главный примитив — условный инкремент одним SQL-запросом: никакого
// read-then-write, иначе гонка конкурентных запросов пробьёт лимит.
package ratelimit

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

// IncrementBelow атомарно увеличивает счётчик окна, но только если текущее
// значение ещё меньше limit. Возвращает значение после инкремента и флаг,
// прошёл ли инкремент.
//
// Заблокированные вызовы счётчик НЕ увеличивают: повторно стучащийся
// клиент не «портит» окно и не продлевает себе блокировку.
func (r *Repository) IncrementBelow(ctx context.Context, actorID, action string, windowStart time.Time, limit int) (int, bool, error) {
	ctx, cancel := postgres.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `
		INSERT INTO rate_limits (actor_id, action, window_start, count)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (actor_id, action, window_start) DO UPDATE
		SET count = rate_limits.count + 1, updated_at = NOW()
		WHERE rate_limits.count < $4
		RETURNING count
	`
	var count int
	err := r.db.QueryRow(ctx, query, actorID, action, windowStart, limit).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Условие WHERE не выполнилось — лимит уже достигнут
			return limit, false, nil
		}
		return 0, false, fmt.Errorf("ошибка инкремента счётчика: %w", err)
	}
	return count, true, nil
}

// DeleteExpired удаляет строки счётчиков со стартом окна раньше before.
// Вызывается кроном — на корректность не влияет (старое окно и так
// не совпадёт по ключу), это только гигиена таблицы.
func (r *Repository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	ctx, cancel := postgres.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM rate_limits WHERE window_start < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("ошибка чистки счётчиков: %w", err)
	}
	return tag.RowsAffected(), nil
}
