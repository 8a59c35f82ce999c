package server

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	idleClientTTL   = 10 * time.Minute
	sweepAtClients  = 4096
	retryAfterFloor = time.Second
)

type clientState struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter keeps one token bucket per client address.
type clientLimiter struct {
	rps   rate.Limit
	burst int
	now   func() time.Time

	mu      sync.Mutex
	clients map[string]*clientState
}

func newClientLimiter(rps float64, burst int) *clientLimiter {
	return &clientLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
		clients: make(map[string]*clientState),
	}
}

// reserve reports whether the client may proceed now and, if not, how long
// it should wait.
func (l *clientLimiter) reserve(key string) (bool, time.Duration) {
	now := l.now()
	l.mu.Lock()
	st, ok := l.clients[key]
	if !ok {
		if len(l.clients) >= sweepAtClients {
			l.sweepLocked(now)
		}
		st = &clientState{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[key] = st
	}
	st.lastSeen = now
	l.mu.Unlock()

	r := st.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, retryAfterFloor
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, d
	}
	return true, 0
}

func (l *clientLimiter) sweepLocked(now time.Time) {
	for k, st := range l.clients {
		if now.Sub(st.lastSeen) > idleClientTTL {
			delete(l.clients, k)
		}
	}
}

func (l *clientLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := l.reserve(clientKey(r))
		if !ok {
			secs := int(wait.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
