// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы, обработчики
// и собирает всё в HTTP-сервер с планировщиком.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"recognition-service/internal/audit"
	"recognition-service/internal/config"
	"recognition-service/internal/db/postgres"
	"recognition-service/internal/features/abuse"
	"recognition-service/internal/features/idempotency"
	"recognition-service/internal/features/members"
	"recognition-service/internal/features/quota"
	"recognition-service/internal/features/ratelimit"
	"recognition-service/internal/features/recognition"
	"recognition-service/internal/jobs"
	"recognition-service/internal/server"
	"recognition-service/internal/server/middleware"
)

// App содержит все компоненты приложения.
type App struct {
	Server       *http.Server
	Scheduler    *jobs.Scheduler
	BurstLimiter *middleware.BurstLimiter
	DB           *pgxpool.Pool
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	// Запускаем миграции
	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Репозитории ===
	// Каждый репозиторий ограничивает свои запросы таймаутом DB_QUERY_TIMEOUT
	memberRepo := members.NewRepository(pool, cfg.DBQueryTimeout)
	recognitionRepo := recognition.NewRepository(pool, cfg.DBQueryTimeout)
	rateLimitRepo := ratelimit.NewRepository(pool, cfg.DBQueryTimeout)
	quotaRepo := quota.NewRepository(pool, cfg.DBQueryTimeout)
	idempotencyRepo := idempotency.NewRepository(pool, cfg.DBQueryTimeout)
	abuseRepo := abuse.NewRepository(pool, cfg.DBQueryTimeout)
	auditRepo := audit.NewRepository(pool, cfg.DBQueryTimeout)

	// === 3. Сервисы ===
	auditService := audit.NewService(auditRepo)
	memberService := members.NewService(memberRepo, auditService)
	rateLimitService := ratelimit.NewService(rateLimitRepo, cfg)
	quotaService := quota.NewService(quotaRepo, cfg, quota.Proceed)
	idempotencyService := idempotency.NewService(idempotencyRepo, cfg)
	abuseService := abuse.NewService(abuseRepo, recognitionRepo, abuse.NewDetector(abuse.ThresholdsFromConfig(cfg)))
	recognitionService := recognition.NewService(
		recognitionRepo, memberService, rateLimitService, quotaService,
		idempotencyService, auditService, abuseService, cfg,
	)

	// === 4. Обработчики ===
	handlers := server.Handlers{
		Recognitions: recognition.NewHandler(recognitionService),
		Flags:        abuse.NewHandler(abuseService),
		Members:      members.NewHandler(memberService),
	}

	// === 5. HTTP-сервер ===
	burstLimiter := middleware.NewBurstLimiter(cfg.BurstLimitRequests, cfg.BurstLimitWindow)
	router := server.NewRouter(handlers, burstLimiter)
	srv := server.New(cfg, router)

	// === 6. Планировщик задач ===
	scheduler := jobs.NewScheduler(cfg, rateLimitRepo, quotaRepo, quotaService, idempotencyRepo)

	return &App{
		Server:       srv,
		Scheduler:    scheduler,
		BurstLimiter: burstLimiter,
		DB:           pool,
	}, nil
}

// runMigrations выполняет все SQL-миграции.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	// Инициализируем систему миграций
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return err
	}

	// Выполняем миграции по порядку
	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Members},
		{2, migration002Recognitions},
		{3, migration003Counters},
		{4, migration004Idempotency},
		{5, migration005AbuseFlags},
		{6, migration006Audit},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

var migration001Members = `
CREATE TABLE IF NOT EXISTS members (
    id BIGSERIAL PRIMARY KEY,
    user_id VARCHAR(255) UNIQUE NOT NULL,
    email VARCHAR(255),
    display_name VARCHAR(255),
    organization_id VARCHAR(255) NOT NULL,
    role VARCHAR(32) NOT NULL DEFAULT 'USER',
    is_banned BOOLEAN DEFAULT FALSE,
    created_at TIMESTAMPTZ DEFAULT NOW(),
    updated_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_members_user_id ON members(user_id);
CREATE INDEX IF NOT EXISTS idx_members_org ON members(organization_id);
`

var migration002Recognitions = `
CREATE TABLE IF NOT EXISTS recognitions (
    id UUID PRIMARY KEY,
    giver_id VARCHAR(255) NOT NULL,
    recipient_id VARCHAR(255) NOT NULL,
    organization_id VARCHAR(255) NOT NULL,
    reason TEXT NOT NULL,
    tags TEXT[] NOT NULL DEFAULT '{}',
    evidence_refs TEXT[] NOT NULL DEFAULT '{}',
    weight DOUBLE PRECISION NOT NULL,
    verified_weight DOUBLE PRECISION,
    status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
    visibility VARCHAR(16) NOT NULL DEFAULT 'TEAM',
    verifier_id VARCHAR(255),
    verifier_role VARCHAR(32),
    verify_note TEXT,
    verified_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ DEFAULT NOW(),
    updated_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_recognitions_giver ON recognitions(giver_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_recognitions_recipient ON recognitions(recipient_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_recognitions_status ON recognitions(status);
`

var migration003Counters = `
CREATE TABLE IF NOT EXISTS rate_limits (
    id BIGSERIAL PRIMARY KEY,
    actor_id VARCHAR(255) NOT NULL,
    action VARCHAR(64) NOT NULL,
    window_start TIMESTAMPTZ NOT NULL,
    count INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ DEFAULT NOW(),
    updated_at TIMESTAMPTZ DEFAULT NOW(),
    UNIQUE (actor_id, action, window_start)
);
CREATE TABLE IF NOT EXISTS quotas (
    id BIGSERIAL PRIMARY KEY,
    organization_id VARCHAR(255) NOT NULL,
    resource VARCHAR(64) NOT NULL,
    period_start TIMESTAMPTZ NOT NULL,
    used INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ DEFAULT NOW(),
    updated_at TIMESTAMPTZ DEFAULT NOW(),
    UNIQUE (organization_id, resource, period_start)
);
`

var migration004Idempotency = `
CREATE TABLE IF NOT EXISTS idempotency_keys (
    id BIGSERIAL PRIMARY KEY,
    idempotency_key VARCHAR(255) NOT NULL,
    actor_id VARCHAR(255) NOT NULL,
    action VARCHAR(64) NOT NULL,
    response JSONB,
    created_at TIMESTAMPTZ DEFAULT NOW(),
    UNIQUE (idempotency_key, actor_id)
);
CREATE INDEX IF NOT EXISTS idx_idempotency_created_at ON idempotency_keys(created_at);
`

var migration005AbuseFlags = `
CREATE TABLE IF NOT EXISTS abuse_flags (
    id UUID PRIMARY KEY,
    recognition_id UUID NOT NULL REFERENCES recognitions(id),
    flag_type VARCHAR(32) NOT NULL,
    severity VARCHAR(16) NOT NULL,
    detection_method VARCHAR(32) NOT NULL,
    status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
    details TEXT,
    created_at TIMESTAMPTZ DEFAULT NOW(),
    updated_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_abuse_flags_recognition ON abuse_flags(recognition_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_abuse_flags_status ON abuse_flags(status);
`

var migration006Audit = `
CREATE TABLE IF NOT EXISTS audit_events (
    id BIGSERIAL PRIMARY KEY,
    channel VARCHAR(16) NOT NULL,
    event_code VARCHAR(64) NOT NULL,
    actor_hash VARCHAR(64),
    target_id VARCHAR(255),
    metadata JSONB,
    created_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_audit_events_code ON audit_events(event_code, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_audit_events_channel ON audit_events(channel, created_at DESC);
`
