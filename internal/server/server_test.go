package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Imayankparadkar/chatbot-gromo/internal/conversation"
	"github.com/Imayankparadkar/chatbot-gromo/internal/gateway"
	"github.com/Imayankparadkar/chatbot-gromo/internal/prompt"
)

// stubGateway scripts the completion outcome for handler tests.
type stubGateway struct {
	response     string
	err          error
	probeOK      bool
	configured   bool
	lastMessages []conversation.Message
}

func (g *stubGateway) Complete(ctx context.Context, messages []conversation.Message, maxTokens int, temperature float32) (string, error) {
	g.lastMessages = messages
	return g.response, g.err
}

func (g *stubGateway) Probe(ctx context.Context) bool { return g.probeOK }
func (g *stubGateway) Configured() bool               { return g.configured }

func newTestServer(t *testing.T, gw Gateway) (*httptest.Server, *conversation.MemoryStore) {
	t.Helper()
	store := conversation.NewMemoryStore(conversation.Limits{})
	server := httptest.NewServer(New(store, gw, Options{}).Handler())
	t.Cleanup(server.Close)
	return server, store
}

func postJSON(t *testing.T, url string, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, decoded
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, decoded
}

func TestChatCreatesSession(t *testing.T) {
	gw := &stubGateway{response: "Here is some advice."}
	server, store := newTestServer(t, gw)

	resp, body := postJSON(t, server.URL+"/chat", `{
		"message": "Hello",
		"session_id": "s1",
		"agent_name": "Asha",
		"client_name": "Ravi",
		"client_age": "25"
	}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	if body["response"] != "Here is some advice." {
		t.Errorf("response = %v", body["response"])
	}
	if body["session_id"] != "s1" {
		t.Errorf("session_id = %v, want s1", body["session_id"])
	}
	if body["message_count"] != float64(2) {
		t.Errorf("message_count = %v, want 2", body["message_count"])
	}
	if body["timestamp"] == "" {
		t.Error("timestamp missing")
	}

	messages, err := store.Messages("s1")
	if err != nil {
		t.Fatalf("Messages(s1): %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("transcript length = %d, want 3", len(messages))
	}
	if messages[0].Role != conversation.RoleSystem {
		t.Errorf("first message role = %q, want system", messages[0].Role)
	}
	if !strings.Contains(messages[0].Content, "**Gromo Agent**: Asha") ||
		!strings.Contains(messages[0].Content, "**Client**: Ravi") ||
		!strings.Contains(messages[0].Content, "**Age**: 25") {
		t.Error("system prompt missing profile fields")
	}
	if messages[1].Role != conversation.RoleUser || messages[1].Content != "Hello" {
		t.Errorf("second message = %+v, want user Hello", messages[1])
	}
	if messages[2].Role != conversation.RoleAssistant {
		t.Errorf("third message role = %q, want assistant", messages[2].Role)
	}
}

func TestChatEmptyMessage(t *testing.T) {
	server, _ := newTestServer(t, &stubGateway{response: "unused"})

	resp, body := postJSON(t, server.URL+"/chat", `{"message": "   ", "session_id": "s1"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
	if body["error"] == "" {
		t.Error("error message missing")
	}
}

func TestChatInvalidJSON(t *testing.T) {
	server, _ := newTestServer(t, &stubGateway{response: "unused"})

	resp, body := postJSON(t, server.URL+"/chat", `this is not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
}

func TestChatGeneratesSessionID(t *testing.T) {
	server, store := newTestServer(t, &stubGateway{response: "ok"})

	_, body := postJSON(t, server.URL+"/chat", `{"message": "Hello"}`)
	sessionID, _ := body["session_id"].(string)
	if sessionID == "" {
		t.Fatal("session_id missing")
	}
	if _, err := store.Messages(sessionID); err != nil {
		t.Errorf("generated session not stored: %v", err)
	}
}

func TestChatFallbackOnConnectionFailure(t *testing.T) {
	gw := &stubGateway{err: &gateway.Error{Code: gateway.CodeConnection, Message: "dial tcp: refused"}}
	server, store := newTestServer(t, gw)

	resp, body := postJSON(t, server.URL+"/chat", `{"message": "Hello", "session_id": "s1"}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 even on gateway failure", resp.StatusCode)
	}
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	response, _ := body["response"].(string)
	if !strings.Contains(response, "Unable to connect to AI service") {
		t.Errorf("fallback missing connectivity reason: %q", response)
	}
	for _, marker := range prompt.Markers() {
		if !strings.Contains(response, marker) {
			t.Errorf("fallback missing section marker %q", marker)
		}
	}

	// Fallback is part of the transcript like any assistant reply.
	messages, err := store.Messages("s1")
	if err != nil {
		t.Fatal(err)
	}
	if messages[len(messages)-1].Role != conversation.RoleAssistant {
		t.Error("fallback not appended as assistant message")
	}
}

func TestChatFallbackReasons(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{gateway.CodeAuth, "authentication failed"},
		{gateway.CodeRateLimited, "rate limit exceeded"},
		{gateway.CodeUnavailable, "server error"},
		{gateway.CodeTimeout, "taking longer than usual"},
		{gateway.CodeDecode, "Invalid response format"},
		{gateway.CodeProtocol, "API returned no response choices"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			gw := &stubGateway{err: &gateway.Error{Code: tt.code}}
			server, _ := newTestServer(t, gw)

			_, body := postJSON(t, server.URL+"/chat", `{"message": "Hello"}`)
			response, _ := body["response"].(string)
			if !strings.Contains(response, tt.want) {
				t.Errorf("fallback = %q, want substring %q", response, tt.want)
			}
		})
	}
}

func TestChatFallbackOnEmptyCompletion(t *testing.T) {
	server, _ := newTestServer(t, &stubGateway{response: ""})

	resp, body := postJSON(t, server.URL+"/chat", `{"message": "Hello", "session_id": "s1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	response, _ := body["response"].(string)
	if !strings.Contains(response, "API returned no response choices") {
		t.Errorf("fallback = %q, want no-choices reason", response)
	}
}

func TestChatContinuesConversation(t *testing.T) {
	gw := &stubGateway{response: "reply"}
	server, _ := newTestServer(t, gw)

	postJSON(t, server.URL+"/chat", `{"message": "first", "session_id": "s1"}`)
	postJSON(t, server.URL+"/chat", `{"message": "second", "session_id": "s1"}`)

	// system + first + reply + second
	if len(gw.lastMessages) != 4 {
		t.Fatalf("gateway saw %d messages, want 4", len(gw.lastMessages))
	}
	if gw.lastMessages[3].Content != "second" {
		t.Errorf("last message = %q, want second", gw.lastMessages[3].Content)
	}
}

func TestChatReset(t *testing.T) {
	server, store := newTestServer(t, &stubGateway{response: "reply"})

	postJSON(t, server.URL+"/chat", `{"message": "first", "session_id": "s1"}`)
	postJSON(t, server.URL+"/chat", `{"message": "fresh start", "session_id": "s1", "reset": true}`)

	history, err := store.History("s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("history length after reset = %d, want 2", len(history))
	}
	if history[0].Content != "fresh start" {
		t.Errorf("history[0] = %q, want fresh start", history[0].Content)
	}
}

func TestAPIChatAltFieldNames(t *testing.T) {
	server, store := newTestServer(t, &stubGateway{response: "reply"})

	resp, body := postJSON(t, server.URL+"/api/chat", `{"message": "Hello", "sessionId": "cam-1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["session_id"] != "cam-1" {
		t.Errorf("session_id = %v, want cam-1", body["session_id"])
	}
	if body["response"] != body["message"] {
		t.Error("response and message fields must match")
	}
	if _, err := store.Messages("cam-1"); err != nil {
		t.Errorf("session not stored: %v", err)
	}
}

func TestAPIChatEmptyMessage(t *testing.T) {
	server, _ := newTestServer(t, &stubGateway{response: "unused"})

	resp, body := postJSON(t, server.URL+"/api/chat", `{"message": ""}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
}

func TestHealth(t *testing.T) {
	gw := &stubGateway{probeOK: true}
	server, store := newTestServer(t, gw)
	store.GetOrCreate("s1", []conversation.Message{{Role: conversation.RoleSystem, Content: "p"}})

	resp, body := getJSON(t, server.URL+"/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v", body["status"])
	}
	if body["groq_api_status"] != "connected" {
		t.Errorf("groq_api_status = %v, want connected", body["groq_api_status"])
	}
	if body["active_conversations"] != float64(1) {
		t.Errorf("active_conversations = %v, want 1", body["active_conversations"])
	}
}

func TestHealthDisconnected(t *testing.T) {
	server, _ := newTestServer(t, &stubGateway{probeOK: false})

	_, body := getJSON(t, server.URL+"/health")
	if body["groq_api_status"] != "disconnected" {
		t.Errorf("groq_api_status = %v, want disconnected", body["groq_api_status"])
	}
}

func TestTestGroq(t *testing.T) {
	server, _ := newTestServer(t, &stubGateway{response: "Hello from Groq"})

	resp, body := getJSON(t, server.URL+"/test_groq")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["status"] != "success" {
		t.Errorf("status = %v", body["status"])
	}
	if body["api_key_valid"] != true {
		t.Errorf("api_key_valid = %v, want true", body["api_key_valid"])
	}
	if body["response_length"] != float64(len("Hello from Groq")) {
		t.Errorf("response_length = %v", body["response_length"])
	}
}

func TestTestGroqFailure(t *testing.T) {
	gw := &stubGateway{err: &gateway.Error{Code: gateway.CodeAuth, StatusCode: 401}}
	server, _ := newTestServer(t, gw)

	resp, body := getJSON(t, server.URL+"/test_groq")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	if body["api_key_valid"] != false {
		t.Errorf("api_key_valid = %v, want false", body["api_key_valid"])
	}
}

func TestDebug(t *testing.T) {
	gw := &stubGateway{probeOK: true, configured: true}
	server, store := newTestServer(t, gw)
	store.GetOrCreate("s1", []conversation.Message{{Role: conversation.RoleSystem, Content: "p"}})

	_, body := getJSON(t, server.URL+"/debug")
	if body["server_status"] != "running" {
		t.Errorf("server_status = %v", body["server_status"])
	}
	if body["groq_api_key_configured"] != true {
		t.Errorf("groq_api_key_configured = %v, want true", body["groq_api_key_configured"])
	}
	ids, _ := body["conversation_ids"].([]any)
	if len(ids) != 1 {
		t.Errorf("conversation_ids = %v, want one entry", body["conversation_ids"])
	}
}

func TestHistory(t *testing.T) {
	server, store := newTestServer(t, &stubGateway{})
	store.GetOrCreate("s1", []conversation.Message{{Role: conversation.RoleSystem, Content: "p"}})
	_ = store.Append("s1", conversation.Message{Role: conversation.RoleUser, Content: "hi"})
	_ = store.Append("s1", conversation.Message{Role: conversation.RoleAssistant, Content: "hello"})

	resp, body := getJSON(t, server.URL+"/conversation_history/s1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["message_count"] != float64(2) {
		t.Errorf("message_count = %v, want 2 (system excluded)", body["message_count"])
	}
}

func TestHistoryUnknownSession(t *testing.T) {
	server, _ := newTestServer(t, &stubGateway{})

	resp, body := getJSON(t, server.URL+"/conversation_history/unknown")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
	history, ok := body["history"].([]any)
	if !ok || len(history) != 0 {
		t.Errorf("history = %v, want empty array", body["history"])
	}
}

func TestClearIsIdempotent(t *testing.T) {
	server, store := newTestServer(t, &stubGateway{})
	store.GetOrCreate("s1", []conversation.Message{{Role: conversation.RoleSystem, Content: "p"}})

	for i := 0; i < 2; i++ {
		resp, body := postJSON(t, server.URL+"/clear_conversation/s1", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("call %d: status = %d, want 200", i+1, resp.StatusCode)
		}
		if body["success"] != true {
			t.Errorf("call %d: success = %v, want true", i+1, body["success"])
		}
	}
	if store.Count() != 0 {
		t.Errorf("store count = %d, want 0", store.Count())
	}
}

func TestIndex(t *testing.T) {
	server, _ := newTestServer(t, &stubGateway{})

	resp, body := getJSON(t, server.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["service"] != "Gromo Coach API" {
		t.Errorf("service = %v", body["service"])
	}
}

func TestUnknownEndpoint(t *testing.T) {
	server, _ := newTestServer(t, &stubGateway{})

	resp, body := getJSON(t, server.URL+"/nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if body["error"] != "Endpoint not found" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestCORSPreflight(t *testing.T) {
	server, _ := newTestServer(t, &stubGateway{})

	req, _ := http.NewRequest(http.MethodOptions, server.URL+"/chat", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Headers"); !strings.Contains(got, "Content-Type") {
		t.Errorf("Access-Control-Allow-Headers = %q", got)
	}
}
