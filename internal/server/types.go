package server

import "github.com/Imayankparadkar/chatbot-gromo/internal/conversation"

// chatRequest is the POST /chat body. Fields mirror the frontend's
// snake_case naming.
type chatRequest struct {
	Message      string `json:"message"`
	SessionID    string `json:"session_id"`
	AgentName    string `json:"agent_name"`
	ClientName   string `json:"client_name"`
	ClientAge    string `json:"client_age"`
	ClientIncome string `json:"client_income"`
	ClientGoal   string `json:"client_goal"`
	Language     string `json:"language"`
	Reset        bool   `json:"reset"`
}

// apiChatRequest is the POST /api/chat body. The alias endpoint accepts
// the camelCase session field some frontends send.
type apiChatRequest struct {
	Message      string `json:"message"`
	SessionID    string `json:"sessionId"`
	SessionIDAlt string `json:"session_id"`
	Language     string `json:"language"`
}

type chatResponse struct {
	Success      bool   `json:"success"`
	Response     string `json:"response"`
	SessionID    string `json:"session_id"`
	MessageCount int    `json:"message_count"`
	Timestamp    string `json:"timestamp"`
	ResponseType string `json:"response_type"`
}

type apiChatResponse struct {
	Success   bool   `json:"success"`
	Response  string `json:"response"`
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	Timestamp string `json:"timestamp"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Success bool   `json:"success"`
}

type healthResponse struct {
	Status              string `json:"status"`
	Message             string `json:"message"`
	GroqAPIStatus       string `json:"groq_api_status"`
	ActiveConversations int    `json:"active_conversations"`
	Timestamp           string `json:"timestamp"`
}

type testGroqResponse struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	TestResponse   string `json:"test_response,omitempty"`
	APIKeyValid    bool   `json:"api_key_valid"`
	ResponseLength int    `json:"response_length"`
}

type debugResponse struct {
	ServerStatus         string   `json:"server_status"`
	GroqAPIKeyConfigured bool     `json:"groq_api_key_configured"`
	GroqAPIWorking       bool     `json:"groq_api_working"`
	ActiveConversations  int      `json:"active_conversations"`
	ConversationIDs      []string `json:"conversation_ids"`
	Timestamp            string   `json:"timestamp"`
}

type historyResponse struct {
	Success      bool                   `json:"success"`
	History      []conversation.Message `json:"history"`
	MessageCount int                    `json:"message_count"`
	SessionID    string                 `json:"session_id"`
}

type historyErrorResponse struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error"`
	History []conversation.Message `json:"history"`
}

type clearResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type indexResponse struct {
	Service   string   `json:"service"`
	Status    string   `json:"status"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}
