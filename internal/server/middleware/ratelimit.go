package middleware

import (
	"net/http"
	"sync"
	"time"
)

// BurstLimiter ограничивает количество запросов на актора за короткое окно.
// Использует алгоритм скользящего окна в памяти процесса: это защита от
// всплесков, а не суточные лимиты — те считаются персистентно в БД.
type BurstLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewBurstLimiter(limit int, window time.Duration) *BurstLimiter {
	bl := &BurstLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		stopCh:   make(chan struct{}),
	}
	go bl.cleanup()
	return bl
}

// Close останавливает фоновую горутину очистки.
// Его надо вызывать на shutdown (иначе cleanup будет жить вечно).
func (bl *BurstLimiter) Close() {
	bl.stopOnce.Do(func() { close(bl.stopCh) })
}

// Allow сообщает, пропускать ли очередной запрос ключа key.
func (bl *BurstLimiter) Allow(key string) bool {
	bl.mu.Lock()
	defer bl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-bl.window)

	var recent []time.Time
	for _, t := range bl.requests[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= bl.limit {
		bl.requests[key] = recent
		return false
	}

	recent = append(recent, now)
	bl.requests[key] = recent
	return true
}

// Handler — HTTP-middleware поверх лимитера. Ключ — актор из заголовка,
// для анонимных запросов — адрес клиента.
func (bl *BurstLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-Actor-ID")
		if key == "" {
			key = r.RemoteAddr
		}
		if !bl.Allow(key) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":"RATE_LIMITED","message":"слишком много запросов"}}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (bl *BurstLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-bl.stopCh:
			return
		case <-ticker.C:
			bl.mu.Lock()
			cutoff := time.Now().Add(-bl.window)
			for key, times := range bl.requests {
				var recent []time.Time
				for _, t := range times {
					if t.After(cutoff) {
						recent = append(recent, t)
					}
				}
				if len(recent) == 0 {
					delete(bl.requests, key)
				} else {
					bl.requests[key] = recent
				}
			}
			bl.mu.Unlock()
		}
	}
}
