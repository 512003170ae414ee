package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Imayankparadkar/chatbot-gromo/internal/conversation"
	"github.com/Imayankparadkar/chatbot-gromo/internal/gateway"
	"github.com/Imayankparadkar/chatbot-gromo/internal/observability"
	"github.com/Imayankparadkar/chatbot-gromo/internal/server"
	"github.com/Imayankparadkar/chatbot-gromo/pkg/config"
	metrics "github.com/Imayankparadkar/chatbot-gromo/pkg/observability"
)

var (
	// Version information (set via ldflags)
	Version = "dev"

	// Command line flags
	configFile = flag.String("config", os.Getenv("CONFIG_FILE"), "Configuration file (YAML)")
	httpPort   = flag.Int("port", 0, "HTTP server port (overrides config)")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if *httpPort != 0 {
		cfg.Port = *httpPort
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	log.Printf("Starting Gromo Coach v%s", Version)
	log.Printf("Model: %s, Port: %d", cfg.Model, cfg.Port)

	// Initialize observability
	metrics.InitMetrics()
	if err := observability.InitFromEnv(); err != nil {
		log.Printf("Tracing disabled: %v", err)
	}

	store := conversation.NewMemoryStore(conversation.Limits{
		MaxSessions:           cfg.MaxConversations,
		MaxMessagesPerSession: cfg.MaxMessagesPerConversation,
		EvictBatch:            cfg.EvictBatch,
		TrimSlack:             cfg.TrimSlack,
	})
	metrics.RegisterActiveConversations(store.Count)

	gw := gateway.New(gateway.Config{
		APIKey:         cfg.GroqAPIKey,
		BaseURL:        cfg.GroqBaseURL,
		Model:          cfg.Model,
		RequestTimeout: cfg.RequestTimeout,
		ProbeTimeout:   cfg.ProbeTimeout,
	})

	probeCtx, probeCancel := context.WithTimeout(context.Background(), cfg.ProbeTimeout)
	if gw.Probe(probeCtx) {
		log.Println("Groq API connection OK")
	} else {
		log.Println("Groq API unreachable at startup; chat will serve fallback responses")
	}
	probeCancel()

	srv := server.New(store, gw, server.Options{
		MaxTokens:   cfg.MaxTokens,
		Temperature: float32(cfg.Temperature),
		Version:     Version,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Printf("Listening on :%d", cfg.Port)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		log.Println("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := observability.Shutdown(shutdownCtx); err != nil {
			log.Printf("Tracing shutdown error: %v", err)
		}
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Fatalf("Error: %v", err)
	}
	log.Println("Server stopped")
}

func loadConfig() (*config.Config, error) {
	if *configFile == "" {
		return config.Default(), nil
	}
	return config.Load(*configFile)
}
