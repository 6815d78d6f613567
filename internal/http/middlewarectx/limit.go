package middlewarectx

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/fashion-storefront/internal/http/response"
)

// DefaultLimiterIdleTTL время, после которого неиспользуемый bucket удаляется.
const DefaultLimiterIdleTTL = 10 * time.Minute

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiter держит отдельный token bucket на каждый адрес клиента.
// Идентификатор устройства выбирает сам клиент, поэтому ключом он не служит.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	rps       rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter создаёт ограничитель. idleTTL <= 0 означает DefaultLimiterIdleTTL.
func NewRateLimiter(rps float64, burst int, idleTTL time.Duration) *RateLimiter {
	if idleTTL <= 0 {
		idleTTL = DefaultLimiterIdleTTL
	}
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		rps:     rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// Allow сообщает, можно ли выполнить ещё один запрос для key.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	now := l.now()
	l.sweep(now)
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.rps, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()
	return b.lim.AllowN(now, 1)
}

// Len возвращает количество отслеживаемых клиентов.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *RateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleTTL {
		return
	}
	l.lastSweep = now
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idleTTL {
			delete(l.buckets, key)
		}
	}
}

// RateLimitMiddleware отвечает 429, когда клиент превысил лимит.
func RateLimitMiddleware(limiter *RateLimiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			if !limiter.Allow(key) {
				log.Info("too many requests", slog.String("client", key))
				response.JSON(w, r, http.StatusTooManyRequests, response.Error("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
