package cache

import (
	"bytes"
	"net/http"
	"time"
)

// recorder tees the response so a successful body can be stored after
// the handler returns.
type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// CachedJSON wraps a GET handler so its 200 JSON responses are served
// from the cache for ttl. The handler is composed explicitly; nothing on
// the ResponseWriter is monkey-patched. With a nil Store the handler
// runs untouched.
func (s *Store) CachedJSON(ttl time.Duration, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s == nil || r.Method != http.MethodGet {
			next(w, r)
			return
		}

		key := "cache:" + r.URL.RequestURI()
		if body, ok := s.Get(r.Context(), key); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(body)
			return
		}

		rec := &recorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		if rec.status == http.StatusOK {
			s.Set(r.Context(), key, rec.body.Bytes(), ttl)
		}
	}
}
