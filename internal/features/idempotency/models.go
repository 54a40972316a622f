// Package idempotency реализует дедупликацию повторных запросов
// по клиентскому ключу. models.go описывает запись кэша ответов.
package idempotency

import "time"

// Record — кэшированный ответ ранее обработанного запроса.
// Ключ: (idempotency_key, actor_id) — дубликат засчитывается только
// при совпадении и ключа, и актора. Это best-effort защита от ретраев
// клиента, не криптографическая гарантия.
type Record struct {
	ID        int64     `db:"id"`
	Key       string    `db:"idempotency_key"`
	ActorID   string    `db:"actor_id"`
	Action    string    `db:"action"`
	Response  []byte    `db:"response"`
	CreatedAt time.Time `db:"created_at"`
}
