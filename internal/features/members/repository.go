// Package members — repository.go отвечает за все операции с таблицей members в БД.
// Каждая функция выполняет один SQL-запрос и возвращает результат или ошибку.
package members

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"recognition-service/internal/common"
	"recognition-service/internal/db/postgres"
)

type Repository struct {
	db           *pgxpool.Pool
	queryTimeout time.Duration
}

func NewRepository(db *pgxpool.Pool, queryTimeout time.Duration) *Repository {
	return &Repository{db: db, queryTimeout: queryTimeout}
}

// Create добавляет нового участника.
// На конфликте по user_id обновляет только email/имя (не трогает роль/бан).
func (r *Repository) Create(ctx context.Context, m *Member) error {
	ctx, cancel := postgres.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `
		INSERT INTO members (user_id, email, display_name, organization_id, role, is_banned)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET email = EXCLUDED.email,
		    display_name = EXCLUDED.display_name,
		    updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query,
		m.UserID, m.Email, m.DisplayName, m.OrganizationID, string(m.Role), m.IsBanned,
	)
	if err != nil {
		return fmt.Errorf("ошибка создания/обновления участника: %w", err)
	}
	return nil
}

// GetByUserID возвращает участника по внешнему идентификатору.
// Если не найден — common.ErrNotFound.
func (r *Repository) GetByUserID(ctx context.Context, userID string) (*Member, error) {
	ctx, cancel := postgres.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `
		SELECT id, user_id, email, display_name, organization_id, role, is_banned,
		       created_at, updated_at
		FROM members
		WHERE user_id = $1
	`
	var m Member
	var role string
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&m.ID, &m.UserID, &m.Email, &m.DisplayName, &m.OrganizationID,
		&role, &m.IsBanned, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("участник не найден (user_id=%s): %w", userID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка чтения участника (user_id=%s): %w", userID, err)
	}

	parsed, err := ParseRole(role)
	if err != nil {
		// Строка в БД с мусорной ролью — это повод для тревоги, а не для нулевого бонуса.
		return nil, fmt.Errorf("участник %s: %w", userID, err)
	}
	m.Role = parsed
	return &m, nil
}

func (r *Repository) Exists(ctx context.Context, userID string) (bool, error) {
	ctx, cancel := postgres.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `SELECT EXISTS(SELECT 1 FROM members WHERE user_id = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("ошибка проверки существования: %w", err)
	}
	return exists, nil
}

func (r *Repository) UpdateRole(ctx context.Context, userID string, role Role) error {
	ctx, cancel := postgres.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `UPDATE members SET role = $2, updated_at = NOW() WHERE user_id = $1`
	tag, err := r.db.Exec(ctx, query, userID, string(role))
	if err != nil {
		return fmt.Errorf("ошибка обновления роли: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("участник не найден (user_id=%s): %w", userID, common.ErrNotFound)
	}
	return nil
}
