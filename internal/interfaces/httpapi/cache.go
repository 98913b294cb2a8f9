package httpapi

import (
	"hash/fnv"
	"net/http"
	"strconv"

	"github.com/pucklab/roster-optimizer/internal/platform/cache"
	"github.com/valyala/bytebufferpool"
)

type cachedResponse struct {
	status      int
	contentType string
	body        []byte
}

// responseRecorder tees the handler output into a pooled buffer so a
// successful response can be replayed on the next cache hit.
type responseRecorder struct {
	http.ResponseWriter
	status int
	buf    *bytebufferpool.ByteBuffer
}

func (rec *responseRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *responseRecorder) Write(p []byte) (int, error) {
	rec.buf.Write(p)
	return rec.ResponseWriter.Write(p)
}

// CacheResponses serves repeated GET requests from the store. Entries are
// keyed per request URI and per session token, so one manager's roster is
// never replayed to another. Only 200 responses are cached.
func CacheResponses(store *cache.Store, next http.Handler) http.Handler {
	if store == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.CacheResponses")
		defer span.End()

		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		key := cacheKey(r)
		if hit, ok := store.Get(ctx, key); ok {
			if cached, ok := hit.(cachedResponse); ok {
				if cached.contentType != "" {
					w.Header().Set("Content-Type", cached.contentType)
				}
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(cached.status)
				_, _ = w.Write(cached.body)
				return
			}
		}

		rec := &responseRecorder{
			ResponseWriter: w,
			status:         http.StatusOK,
			buf:            bytebufferpool.Get(),
		}
		defer bytebufferpool.Put(rec.buf)

		next.ServeHTTP(rec, r.WithContext(ctx))

		if rec.status != http.StatusOK {
			return
		}

		body := make([]byte, rec.buf.Len())
		copy(body, rec.buf.B)
		store.Set(ctx, key, cachedResponse{
			status:      rec.status,
			contentType: rec.Header().Get("Content-Type"),
			body:        body,
		})
	})
}

func cacheKey(r *http.Request) string {
	hasher := fnv.New64a()
	if cred, ok := credentialFromContext(r.Context()); ok {
		_, _ = hasher.Write([]byte(cred.AccessToken))
	}
	return "httpresp:" + r.URL.RequestURI() + ":" + strconv.FormatUint(hasher.Sum64(), 16)
}
