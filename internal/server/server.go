// Package server exposes the chat relay's HTTP surface: the chat
// endpoints, transcript read/clear, and the health/debug introspection
// routes. Gateway failures never surface as HTTP errors on the chat
// paths; they degrade into structured fallback responses.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Imayankparadkar/chatbot-gromo/internal/conversation"
	metrics "github.com/Imayankparadkar/chatbot-gromo/pkg/observability"
)

const testGroqMaxTokens = 500

// Gateway is the completion client the handlers depend on.
type Gateway interface {
	Complete(ctx context.Context, messages []conversation.Message, maxTokens int, temperature float32) (string, error)
	Probe(ctx context.Context) bool
	Configured() bool
}

// Options tunes the handlers.
type Options struct {
	// MaxTokens for chat completions (default 2000).
	MaxTokens int
	// Temperature for chat completions (default 0.7).
	Temperature float32
	// Version reported by the index endpoint.
	Version string
}

// Server wires the conversation store and the gateway into HTTP
// handlers.
type Server struct {
	store       conversation.Store
	gw          Gateway
	maxTokens   int
	temperature float32
	version     string
}

// New creates a Server.
func New(store conversation.Store, gw Gateway, opts Options) *Server {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 2000
	}
	if opts.Temperature <= 0 {
		opts.Temperature = 0.7
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	return &Server{
		store:       store,
		gw:          gw,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		version:     opts.Version,
	}
}

// Handler returns the fully assembled HTTP handler: routes wrapped in
// recovery, CORS, and instrumentation middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /api/chat", s.handleAPIChat)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /test_groq", s.handleTestGroq)
	mux.HandleFunc("GET /debug", s.handleDebug)
	mux.HandleFunc("GET /conversation_history/{session_id}", s.handleHistory)
	mux.HandleFunc("POST /clear_conversation/{session_id}", s.handleClear)
	mux.Handle("GET /metrics", metrics.MetricsHandler())
	mux.HandleFunc("/", s.handleNotFound)

	return withRecovery(withCORS(withInstrumentation(mux)))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, indexResponse{
		Service: "Gromo Coach API",
		Status:  "running",
		Version: s.version,
		Endpoints: []string{
			"POST /chat",
			"POST /api/chat",
			"GET /health",
			"GET /test_groq",
			"GET /debug",
			"GET /conversation_history/{session_id}",
			"POST /clear_conversation/{session_id}",
			"GET /metrics",
		},
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{
		Error:   "Endpoint not found",
		Success: false,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func timestamp() string {
	return time.Now().Format(time.RFC3339)
}

func httpStatusLabel(code int) string {
	return fmt.Sprintf("%d", code)
}
