package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"sync"
	"time"

	"pustaka/pkg/auth"
	apperrors "pustaka/pkg/errors"
	httputil "pustaka/pkg/http"
)

// ErrRequestInFlight is returned by Reserve while another request holds the key.
var ErrRequestInFlight = errors.New("idempotent request in flight")

// IdempotencyStore tracks each key from reservation to its stored response.
type IdempotencyStore interface {
	// Reserve claims key. A completed key returns its stored response.
	Reserve(key string) (*CachedResponse, error)
	Complete(key string, response *CachedResponse)
	Release(key string)
	Stop()
}

type CachedResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

type idempotencyEntry struct {
	response *CachedResponse
	since    time.Time
}

// InMemoryIdempotencyStore keeps reservations and responses for ttl. A
// reservation older than ttl counts as abandoned and can be claimed again.
type InMemoryIdempotencyStore struct {
	mu       sync.Mutex
	entries  map[string]*idempotencyEntry
	ttl      time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		entries: make(map[string]*idempotencyEntry),
		ttl:     ttl,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	go s.janitor()
	return s
}

func (s *InMemoryIdempotencyStore) Reserve(key string) (*CachedResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok && now.Sub(e.since) <= s.ttl {
		if e.response == nil {
			return nil, ErrRequestInFlight
		}
		return e.response, nil
	}
	s.entries[key] = &idempotencyEntry{since: now}
	return nil, nil
}

func (s *InMemoryIdempotencyStore) Complete(key string, response *CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = &idempotencyEntry{response: response, since: s.now()}
}

// Release drops a reservation that produced nothing worth replaying.
func (s *InMemoryIdempotencyStore) Release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && e.response == nil {
		delete(s.entries, key)
	}
}

func (s *InMemoryIdempotencyStore) janitor() {
	interval := s.ttl
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			now := s.now()
			for key, e := range s.entries {
				if now.Sub(e.since) > s.ttl {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

func (s *InMemoryIdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

type recordingWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (rw *recordingWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *recordingWriter) Write(b []byte) (int, error) {
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}

// Idempotency replays the first successful response for a repeated
// Idempotency-Key. Keys are scoped to the caller and route, so a retried
// borrow cannot create a second loan and two members cannot collide. A
// repeat that arrives while the first request is still running gets 409.
func Idempotency(store IdempotencyStore, headerName string) func(http.Handler) http.Handler {
	if headerName == "" {
		headerName = "Idempotency-Key"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := idempotencyKey(r, headerName)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			cached, err := store.Reserve(key)
			if errors.Is(err, ErrRequestInFlight) {
				_ = httputil.WriteError(w, apperrors.Conflict("A request with this Idempotency-Key is still being processed"))
				return
			}
			if cached != nil {
				replay(w, cached)
				return
			}

			rw := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
			completed := false
			defer func() {
				if !completed {
					store.Release(key)
				}
			}()

			next.ServeHTTP(rw, r)

			if rw.status >= 200 && rw.status < 300 {
				store.Complete(key, &CachedResponse{
					StatusCode: rw.status,
					Headers:    w.Header().Clone(),
					Body:       rw.body.Bytes(),
				})
				completed = true
			}
		})
	}
}

func idempotencyKey(r *http.Request, headerName string) string {
	key := r.Header.Get(headerName)
	if key == "" || r.Method == http.MethodGet {
		return ""
	}
	caller := "anonymous"
	if p, ok := auth.FromContext(r.Context()); ok {
		caller = p.UserID
	}
	return caller + "|" + r.Method + "|" + r.URL.Path + "|" + key
}

func replay(w http.ResponseWriter, cached *CachedResponse) {
	for name, values := range cached.Headers {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}
