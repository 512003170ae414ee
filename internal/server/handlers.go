package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Imayankparadkar/chatbot-gromo/internal/conversation"
	"github.com/Imayankparadkar/chatbot-gromo/internal/gateway"
	"github.com/Imayankparadkar/chatbot-gromo/internal/observability"
	"github.com/Imayankparadkar/chatbot-gromo/internal/prompt"
	metrics "github.com/Imayankparadkar/chatbot-gromo/pkg/observability"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Request must be JSON", Success: false})
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Message is required and cannot be empty", Success: false})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	profile := prompt.Profile{
		AdvisorName:  req.AgentName,
		ClientName:   req.ClientName,
		ClientAge:    req.ClientAge,
		ClientIncome: req.ClientIncome,
		ClientGoal:   req.ClientGoal,
		Language:     req.Language,
	}

	response, count, ok := s.runTurn(r, sessionID, message, profile, req.Reset)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "An internal error occurred", Success: false})
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Success:      true,
		Response:     response,
		SessionID:    sessionID,
		MessageCount: count,
		Timestamp:    timestamp(),
		ResponseType: "comprehensive_structured",
	})
}

func (s *Server) handleAPIChat(w http.ResponseWriter, r *http.Request) {
	var req apiChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Request must be JSON", Success: false})
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Message is required", Success: false})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = req.SessionIDAlt
	}
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	response, _, ok := s.runTurn(r, sessionID, message, prompt.Profile{Language: req.Language}, false)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "An internal error occurred", Success: false})
		return
	}

	writeJSON(w, http.StatusOK, apiChatResponse{
		Success:   true,
		Response:  response,
		Message:   response,
		SessionID: sessionID,
		Timestamp: timestamp(),
	})
}

// runTurn executes one chat turn: resolve the session, append the user
// message, call the gateway, degrade to a fallback on failure, append
// the reply, trim. Returns the reply text and the transcript length
// excluding the system prompt.
func (s *Server) runTurn(r *http.Request, sessionID, message string, profile prompt.Profile, reset bool) (string, int, bool) {
	ctx, span := observability.StartSpan(r.Context(), "chat.turn", map[string]any{
		"session_id": sessionID,
		"reset":      reset,
	})
	defer span.End()

	if evicted := s.store.EvictIfOverCapacity(); evicted > 0 {
		log.Printf("Evicted %d idle conversations (count now %d)", evicted, s.store.Count())
	}

	seed := []conversation.Message{{Role: conversation.RoleSystem, Content: prompt.Compose(profile)}}
	if reset {
		s.store.Reset(sessionID, seed)
	} else if s.store.GetOrCreate(sessionID, seed) {
		log.Printf("Initialized conversation for session %s", sessionID)
	}

	userMsg := conversation.Message{Role: conversation.RoleUser, Content: message}
	if err := s.store.Append(sessionID, userMsg); err != nil {
		// Session evicted between resolve and append; reseed and retry.
		s.store.GetOrCreate(sessionID, seed)
		if err := s.store.Append(sessionID, userMsg); err != nil {
			log.Printf("append user message: %v", err)
			span.SetError(err)
			return "", 0, false
		}
	}

	messages, err := s.store.Messages(sessionID)
	if err != nil {
		log.Printf("load transcript for %s: %v", sessionID, err)
		span.SetError(err)
		return "", 0, false
	}

	response := s.complete(ctx, sessionID, messages)

	if err := s.store.Append(sessionID, conversation.Message{Role: conversation.RoleAssistant, Content: response}); err != nil {
		log.Printf("append assistant message: %v", err)
	}
	s.store.Trim(sessionID)

	count := 0
	if messages, err := s.store.Messages(sessionID); err == nil {
		count = len(messages) - 1
	}
	span.SetAttribute("message_count", count)
	return response, count, true
}

// complete calls the gateway and converts any classified failure into
// the structured fallback response.
func (s *Server) complete(ctx context.Context, sessionID string, messages []conversation.Message) string {
	ctx, span := observability.StartSpan(ctx, "gateway.complete", map[string]any{
		"session_id": sessionID,
		"messages":   len(messages),
	})
	defer span.End()

	start := time.Now()
	text, err := s.gw.Complete(ctx, messages, s.maxTokens, s.temperature)
	if err == nil && text == "" {
		err = &gateway.Error{Code: gateway.CodeProtocol, Message: "empty completion"}
	}
	if err == nil {
		metrics.RecordGatewayCall("success", time.Since(start))
		return text
	}

	span.SetError(err)
	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) {
		gwErr = &gateway.Error{Code: gateway.CodeConnection, Message: err.Error()}
	}
	log.Printf("Groq API error for session %s: %v", sessionID, gwErr)
	metrics.RecordGatewayCall(gwErr.Code, time.Since(start))
	metrics.RecordFallback(gwErr.Code)
	return prompt.Fallback(fallbackReason(gwErr))
}

// fallbackReason maps a gateway error onto the human-readable reason
// embedded in the fallback response.
func fallbackReason(err *gateway.Error) string {
	switch err.Code {
	case gateway.CodeAuth:
		return "API authentication failed - please check API key"
	case gateway.CodeRateLimited:
		return "API rate limit exceeded - please try again later"
	case gateway.CodeUnavailable:
		return "API server error - please try again"
	case gateway.CodeTimeout:
		return "The AI is taking longer than usual to respond. Please try again."
	case gateway.CodeConnection:
		return "Unable to connect to AI service. Please check your internet connection."
	case gateway.CodeDecode:
		return "Invalid response format from AI service"
	default:
		if err.StatusCode > 0 {
			return fmt.Sprintf("API Error %d", err.StatusCode)
		}
		return "API returned no response choices"
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "disconnected"
	if s.gw.Probe(r.Context()) {
		status = "connected"
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:              "healthy",
		Message:             "Gromo Coach API is running!",
		GroqAPIStatus:       status,
		ActiveConversations: s.store.Count(),
		Timestamp:           timestamp(),
	})
}

func (s *Server) handleTestGroq(w http.ResponseWriter, r *http.Request) {
	messages := []conversation.Message{
		{Role: conversation.RoleSystem, Content: "You are Gromo Coach. Respond with the 5-section structure."},
		{Role: conversation.RoleUser, Content: "Test if you're working properly with a simple hello."},
	}

	text, err := s.gw.Complete(r.Context(), messages, testGroqMaxTokens, s.temperature)
	if err != nil {
		log.Printf("Groq API test failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, testGroqResponse{
			Status:      "error",
			Message:     "Groq API test failed",
			APIKeyValid: false,
		})
		return
	}

	writeJSON(w, http.StatusOK, testGroqResponse{
		Status:         "success",
		Message:        "Groq API is working!",
		TestResponse:   text,
		APIKeyValid:    true,
		ResponseLength: len(text),
	})
}

func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, debugResponse{
		ServerStatus:         "running",
		GroqAPIKeyConfigured: s.gw.Configured(),
		GroqAPIWorking:       s.gw.Probe(r.Context()),
		ActiveConversations:  s.store.Count(),
		ConversationIDs:      s.store.Keys(5),
		Timestamp:            timestamp(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")

	history, err := s.store.History(sessionID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, historyErrorResponse{
			Success: false,
			Error:   "Session not found",
			History: []conversation.Message{},
		})
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{
		Success:      true,
		History:      history,
		MessageCount: len(history),
		SessionID:    sessionID,
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	s.store.Clear(sessionID)
	log.Printf("Cleared conversation for session %s", sessionID)

	writeJSON(w, http.StatusOK, clearResponse{
		Success: true,
		Message: "Conversation cleared successfully",
	})
}
