// Package config загружает конфигурацию сервиса из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
// Все числовые пороги политик (лимиты, окна, коэффициенты) живут здесь,
// а не в коде — их можно менять без пересборки.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- HTTP ---
	HTTPAddr            string        `envconfig:"HTTP_ADDR" default:":8080"`
	HTTPReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"10s"`
	HTTPWriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"15s"`
	HTTPIdleTimeout     time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"60s"`
	HTTPShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"recognition"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"recognition_service"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`
	// Таймаут одного обращения к БД. Ни один вызов движка не должен висеть бесконечно.
	DBQueryTimeout time.Duration `envconfig:"DB_QUERY_TIMEOUT" default:"5s"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	// Часовой пояс для суточных окон (rate limit, квоты, частотный анализ).
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"UTC"`

	// --- Recognition ---
	RecognitionMinReasonLen int     `envconfig:"RECOGNITION_MIN_REASON_LEN" default:"10"`
	RecognitionMaxTags      int     `envconfig:"RECOGNITION_MAX_TAGS" default:"3"`
	RecognitionWeightMin    float64 `envconfig:"RECOGNITION_WEIGHT_MIN" default:"0.1"`
	RecognitionWeightMax    float64 `envconfig:"RECOGNITION_WEIGHT_MAX" default:"10"`
	RecognitionWeightDef    float64 `envconfig:"RECOGNITION_WEIGHT_DEFAULT" default:"1"`

	// --- Rate Limiting (персистентные суточные счётчики) ---
	RateLimitRecognitionDaily  int `envconfig:"RATE_LIMIT_RECOGNITION_DAILY" default:"20"`
	RateLimitVerificationDaily int `envconfig:"RATE_LIMIT_VERIFICATION_DAILY" default:"50"`

	// --- Burst-защита HTTP (in-memory, скользящее окно) ---
	BurstLimitRequests int           `envconfig:"BURST_LIMIT_REQUESTS" default:"30"`
	BurstLimitWindow   time.Duration `envconfig:"BURST_LIMIT_WINDOW" default:"1m"`

	// --- Квоты организаций ---
	QuotaRecognitionsPerDay  int `envconfig:"QUOTA_RECOGNITIONS_PER_DAY" default:"500"`
	QuotaVerificationsPerDay int `envconfig:"QUOTA_VERIFICATIONS_PER_DAY" default:"200"`
	// Сколько дней держим отработанные строки квот до чистки кроном.
	QuotaRetentionDays int `envconfig:"QUOTA_RETENTION_DAYS" default:"7"`

	// --- Идемпотентность ---
	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`

	// --- Анти-абьюз ---
	// Сколько взаимных обменов A↔B за окно считается подозрительным.
	AbuseReciprocityThreshold int           `envconfig:"ABUSE_RECIPROCITY_THRESHOLD" default:"3"`
	AbuseReciprocityWindow    time.Duration `envconfig:"ABUSE_RECIPROCITY_WINDOW" default:"168h"`
	AbuseFrequencyDaily       int           `envconfig:"ABUSE_FREQUENCY_DAILY" default:"10"`
	AbuseFrequencyWeekly      int           `envconfig:"ABUSE_FREQUENCY_WEEKLY" default:"30"`
	// Допустимая дельта между заявленным и подтверждённым весом.
	AbuseWeightDelta float64 `envconfig:"ABUSE_WEIGHT_DELTA" default:"2"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Location возвращает часовой пояс для суточных окон.
// Если пояс из конфига не загрузился — UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) Validate() error {
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.DBQueryTimeout <= 0 {
		return fmt.Errorf("DB_QUERY_TIMEOUT должен быть > 0")
	}
	if c.RecognitionWeightMin <= 0 || c.RecognitionWeightMax < c.RecognitionWeightMin {
		return fmt.Errorf("некорректные RECOGNITION_WEIGHT_MIN/MAX")
	}
	if c.RecognitionWeightDef < c.RecognitionWeightMin || c.RecognitionWeightDef > c.RecognitionWeightMax {
		return fmt.Errorf("RECOGNITION_WEIGHT_DEFAULT вне диапазона [MIN, MAX]")
	}
	if c.RateLimitRecognitionDaily <= 0 || c.RateLimitVerificationDaily <= 0 {
		return fmt.Errorf("суточные лимиты должны быть > 0")
	}
	if c.QuotaRecognitionsPerDay <= 0 || c.QuotaVerificationsPerDay <= 0 {
		return fmt.Errorf("квоты организаций должны быть > 0")
	}
	if c.IdempotencyTTL <= 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL должен быть > 0")
	}
	if c.AbuseReciprocityThreshold <= 0 || c.AbuseReciprocityWindow <= 0 {
		return fmt.Errorf("некорректные параметры реципрокности")
	}
	if c.AbuseFrequencyDaily <= 0 || c.AbuseFrequencyWeekly < c.AbuseFrequencyDaily {
		return fmt.Errorf("некорректные частотные пороги")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
