// Package quota — repository.go выполняет операции с таблицей quotas.
// Тот же атомарный примитив, что и у rate_limits: условный инкремент
// одним запросом, без read-then-write.
package quota

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

// ConsumeBelow атомарно занимает одну единицу квоты, если used ещё меньше max.
// Возвращает used после инкремента и флаг успеха.
func (r *Repository) ConsumeBelow(ctx context.Context, orgID, resource string, periodStart time.Time, max int) (int, bool, error) {
	ctx, cancel := postgres.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `
		INSERT INTO quotas (organization_id, resource, period_start, used)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (organization_id, resource, period_start) DO UPDATE
		SET used = quotas.used + 1, updated_at = NOW()
		WHERE quotas.used < $4
		RETURNING used
	`
	var used int
	err := r.db.QueryRow(ctx, query, orgID, resource, periodStart, max).Scan(&used)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return max, false, nil
		}
		return 0, false, fmt.Errorf("ошибка инкремента квоты: %w", err)
	}
	return used, true, nil
}

// DeleteExpired удаляет отработанные строки квот старше before.
// Гигиена таблицы для крон-свипа; на корректность не влияет.
func (r *Repository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	ctx, cancel := postgres.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM quotas WHERE period_start < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("ошибка чистки квот: %w", err)
	}
	return tag.RowsAffected(), nil
}
