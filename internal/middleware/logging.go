package middleware

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// WithLogging logs every request at debug level.
func WithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"remote":   getClientIP(r),
			"duration": time.Since(start),
		}).Debug("Handled request")
	})
}
