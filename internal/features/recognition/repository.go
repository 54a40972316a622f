// Package recognition — repository.go выполняет операции с таблицей recognitions.
// Переход статуса делается условным UPDATE одним запросом: сравнение
// со статусом PENDING и запись результата атомарны на стороне БД,
// никакой клиентской блокировки.
package recognition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"recognition-service/internal/common"
	"recognition-service/internal/db/postgres"
	"recognition-service/internal/features/members"
)

type Repository struct {
	db           *pgxpool.Pool
	queryTimeout time.Duration
}

func NewRepository(db *pgxpool.Pool, queryTimeout time.Duration) *Repository {
	return &Repository{db: db, queryTimeout: queryTimeout}
}

const recognitionColumns = `
	id, giver_id, recipient_id, organization_id, reason, tags, evidence_refs,
	weight, verified_weight, status, visibility,
	verifier_id, verifier_role, verify_note, verified_at, created_at, updated_at
`

// Create вставляет новое признание в статусе PENDING.
func (r *Repository) Create(ctx context.Context, rec *Recognition) error {
	ctx, cancel := postgres.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `
		INSERT INTO recognitions
			(id, giver_id, recipient_id, organization_id, reason, tags, evidence_refs,
			 weight, status, visibility)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		rec.ID, rec.GiverID, rec.RecipientID, rec.OrganizationID,
		rec.Reason, rec.Tags, rec.EvidenceRefs,
		rec.Weight, string(rec.Status), string(rec.Visibility),
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка создания признания: %w", err)
	}
	return nil
}

// GetByID возвращает признание. Если не найдено — common.ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id string) (*Recognition, error) {
	ctx, cancel := postgres.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `SELECT ` + recognitionColumns + ` FROM recognitions WHERE id = $1`
	rec, err := scanRecognition(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("признание %s не найдено: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка чтения признания %s: %w", id, err)
	}
	return rec, nil
}

// ApplyVerification выполняет переход PENDING→status условным UPDATE.
// Проверка статуса и запись результата — один атомарный запрос;
// проигравший гонку получает ok == false и обязан вернуть Conflict,
// а не молча перезаписать чужой результат.
func (r *Repository) ApplyVerification(ctx context.Context, id string, status Status, verifiedWeight float64, verifierID string, verifierRole members.Role, note string) (*Recognition, bool, error) {
	ctx, cancel := postgres.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `
		UPDATE recognitions
		SET status = $2, verified_weight = $3,
		    verifier_id = $4, verifier_role = $5, verify_note = NULLIF($6, ''),
		    verified_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
		RETURNING ` + recognitionColumns
	rec, err := scanRecognition(r.db.QueryRow(ctx, query,
		id, string(status), verifiedWeight, verifierID, string(verifierRole), note,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Запись уже не PENDING — конкурентная верификация успела раньше
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("ошибка перехода статуса признания %s: %w", id, err)
	}
	return rec, true, nil
}

// ListByActor возвращает последние признания, где актор — даритель или получатель.
func (r *Repository) ListByActor(ctx context.Context, actorID string, limit int) ([]*Recognition, error) {
	ctx, cancel := postgres.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `
		SELECT ` + recognitionColumns + `
		FROM recognitions
		WHERE giver_id = $1 OR recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, actorID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса признаний: %w", err)
	}
	defer rows.Close()

	var out []*Recognition
	for rows.Next() {
		rec, err := scanRecognition(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования признания: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// scanRecognition читает одну строку recognitions в структуру.
func scanRecognition(row pgx.Row) (*Recognition, error) {
	var rec Recognition
	var status, visibility string
	err := row.Scan(
		&rec.ID, &rec.GiverID, &rec.RecipientID, &rec.OrganizationID,
		&rec.Reason, &rec.Tags, &rec.EvidenceRefs,
		&rec.Weight, &rec.VerifiedWeight, &status, &visibility,
		&rec.VerifierID, &rec.VerifierRole, &rec.VerifyNote, &rec.VerifiedAt,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Status = Status(status)
	rec.Visibility = Visibility(visibility)
	return &rec, nil
}
