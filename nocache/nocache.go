// Package nocache implements the cache-busting static file handler.
package nocache

import "net/http"

// Values of the three response headers forbidding any client or
// intermediary caching.
const (
	CacheControlValue = "no-cache, no-store, must-revalidate"
	PragmaValue       = "no-cache"
	ExpiresValue      = "0"
)

// Wrap sets the cache-busting headers on the response header map and
// then delegates to next. The headers are placed on the map before the
// delegate writes anything, so they ride along on every response path
// the delegate produces, error pages and redirects included.
func Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Cache-Control", CacheControlValue)
		h.Set("Pragma", PragmaValue)
		h.Set("Expires", ExpiresValue)
		next.ServeHTTP(w, r)
	})
}

// FileHandler serves files under root with cache-busting headers.
// Path resolution, MIME types, ranges, index files and 403/404 pages
// are all http.FileServer's.
func FileHandler(root string) http.Handler {
	return Wrap(http.FileServer(http.Dir(root)))
}
