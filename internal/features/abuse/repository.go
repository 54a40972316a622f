// Package abuse — repository.go выполняет операции с таблицей abuse_flags
// и читает историю признаний для детекторов.
package abuse

import (
	"context"
	"fmt"
	"time"

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

// InsertFlags сохраняет набор флагов. Пустой набор — no-op без похода в БД.
func (r *Repository) InsertFlags(ctx context.Context, flags []AbuseFlag) error {
	if len(flags) == 0 {
		return nil
	}
	ctx, cancel := postgres.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `
		INSERT INTO abuse_flags
			(id, recognition_id, flag_type, severity, detection_method, status, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i := range flags {
		f := &flags[i]
		_, err := r.db.Exec(ctx, query,
			f.ID, f.RecognitionID, string(f.FlagType), string(f.Severity),
			string(f.Method), string(f.Status), f.Details,
		)
		if err != nil {
			return fmt.Errorf("ошибка сохранения флага %s: %w", f.FlagType, err)
		}
	}
	return nil
}

// ListByRecognition возвращает флаги признания, новые первыми.
func (r *Repository) ListByRecognition(ctx context.Context, recognitionID string) ([]AbuseFlag, error) {
	ctx, cancel := postgres.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `
		SELECT id, recognition_id, flag_type, severity, detection_method, status, details,
		       created_at, updated_at
		FROM abuse_flags
		WHERE recognition_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, recognitionID)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса флагов: %w", err)
	}
	defer rows.Close()

	var out []AbuseFlag
	for rows.Next() {
		var f AbuseFlag
		var flagType, severity, method, status string
		err := rows.Scan(&f.ID, &f.RecognitionID, &flagType, &severity, &method, &status,
			&f.Details, &f.CreatedAt, &f.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования флага: %w", err)
		}
		f.FlagType = FlagType(flagType)
		f.Severity = Severity(severity)
		f.Method = DetectionMethod(method)
		f.Status = FlagStatus(status)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// UpdateStatus меняет статус рассмотрения флага.
func (r *Repository) UpdateStatus(ctx context.Context, flagID string, status FlagStatus) error {
	ctx, cancel := postgres.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `UPDATE abuse_flags SET status = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, flagID, string(status))
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса флага %s: %w", flagID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("флаг %s не найден: %w", flagID, common.ErrNotFound)
	}
	return nil
}

// PairHistory возвращает историю признаний для детекторов: всё, что выдал
// giver за окно, плюс встречные признания recipient→giver. Одним запросом,
// в минимальной форме Event.
func (r *Repository) PairHistory(ctx context.Context, giverID, recipientID string, since time.Time) ([]Event, error) {
	ctx, cancel := postgres.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `
		SELECT giver_id, recipient_id, weight, created_at
		FROM recognitions
		WHERE created_at >= $3
		  AND (giver_id = $1 OR (giver_id = $2 AND recipient_id = $1))
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, giverID, recipientID, since)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса истории признаний: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.GiverID, &e.RecipientID, &e.Weight, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования истории: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}
