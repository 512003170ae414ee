// Package gateway wraps the Groq chat-completion API. Groq speaks the
// OpenAI wire protocol, so the client is built on go-openai pointed at
// the Groq base URL. Every failure is classified into a typed Error;
// nothing is retried, one provider call per chat turn.
package gateway

import (
	"context"
	"log"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Imayankparadkar/chatbot-gromo/internal/conversation"
)

const (
	// DefaultBaseURL is the Groq OpenAI-compatible endpoint.
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	// DefaultModel is the completion model used for every call.
	DefaultModel = "llama-3.3-70b-versatile"

	defaultRequestTimeout = 60 * time.Second
	defaultProbeTimeout   = 10 * time.Second

	probeMaxTokens = 10
)

// ChatCompleter is the slice of the go-openai client the gateway uses.
// Narrowing it to an interface keeps the client testable.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config configures the gateway client.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	RequestTimeout time.Duration
	ProbeTimeout   time.Duration
}

// Client issues synchronous completion requests against Groq.
type Client struct {
	api            ChatCompleter
	model          string
	requestTimeout time.Duration
	probeTimeout   time.Duration
	configured     bool
}

// New creates a gateway client from config, applying defaults for any
// unset field.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	return NewWithCompleter(cfg, openai.NewClientWithConfig(oc))
}

// NewWithCompleter creates a gateway client over an existing completer.
// Useful for tests.
func NewWithCompleter(cfg Config, api ChatCompleter) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeTimeout
	}
	return &Client{
		api:            api,
		model:          cfg.Model,
		requestTimeout: cfg.RequestTimeout,
		probeTimeout:   cfg.ProbeTimeout,
		configured:     cfg.APIKey != "",
	}
}

// Complete sends the full ordered transcript to the provider and
// returns the first completion choice. Any failure comes back as a
// *Error; the caller decides how to degrade.
func (c *Client) Complete(ctx context.Context, messages []conversation.Message, maxTokens int, temperature float32) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toOpenAI(messages),
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        1,
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", &Error{Code: CodeProtocol, Message: "no completion choices in response"}
	}
	return resp.Choices[0].Message.Content, nil
}

// Probe performs a minimal completion purely to establish connectivity
// and credential validity. Failures are logged, never surfaced as chat
// content.
func (c *Client) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	_, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "Hello"}},
		MaxTokens: probeMaxTokens,
	})
	if err != nil {
		log.Printf("gateway probe failed: %v", classify(err))
		return false
	}
	return true
}

// Configured reports whether an API key was supplied.
func (c *Client) Configured() bool {
	return c.configured
}

func toOpenAI(messages []conversation.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}
