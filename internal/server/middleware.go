package server

import (
	"log"
	"net/http"
	"strings"
	"time"

	metrics "github.com/Imayankparadkar/chatbot-gromo/pkg/observability"
)

// withRecovery converts panics into a generic 500. Details are logged
// server-side only; clients never see internal error text.
func withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				writeJSON(w, http.StatusInternalServerError, errorResponse{
					Error:   "Internal server error",
					Success: false,
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// withCORS applies permissive CORS headers and short-circuits
// preflight requests.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withInstrumentation records request logs and Prometheus metrics.
// The metric path label is normalized to the route shape, not the raw
// URL, to keep cardinality bounded.
func withInstrumentation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		metrics.RecordHTTPRequest(r.Method, metricPath(r.URL.Path), httpStatusLabel(rec.status), duration)
		log.Printf("%s %s -> %d (%s)", r.Method, r.URL.Path, rec.status, duration)
	})
}

var knownPaths = map[string]bool{
	"/":          true,
	"/chat":      true,
	"/api/chat":  true,
	"/health":    true,
	"/test_groq": true,
	"/debug":     true,
	"/metrics":   true,
}

func metricPath(path string) string {
	switch {
	case knownPaths[path]:
		return path
	case strings.HasPrefix(path, "/conversation_history/"):
		return "/conversation_history/{session_id}"
	case strings.HasPrefix(path, "/clear_conversation/"):
		return "/clear_conversation/{session_id}"
	default:
		return "other"
	}
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
