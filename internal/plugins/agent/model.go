// Package agent implements the rule-based mock-interview chat agent:
// per-user interview sessions with an ordered transcript, and a fixed
// keyword-matching reply table (rules.go) -- no language understanding.
//
// Key layout (scoped per user): agent:{uid}:session_seq (id counter),
// agent:{uid}:session:{id} (session hash), agent:{uid}:sessions (owning
// set), agent:{uid}:session:{id}:msg_seq (message index counter),
// agent:{uid}:session:{id}:msg:{n} (turn hash).
package agent

import "time"

// Turn roles in a session transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session is the domain model for an interview session. Role and Focus are
// the interviewee's declared position and direction, interpolated into the
// fallback reply.
type Session struct {
	ID        string
	Role      string
	Focus     string
	CreatedAt string
}

// Message is one turn of a session transcript, appended under the
// session's monotonic message index.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Time    string `json:"time"`
}

// --- Request/response DTOs ---

// SessionCreateRequest is the optional body of POST /agent/session.
type SessionCreateRequest struct {
	Role  string `json:"role"`
	Focus string `json:"focus"`
}

// SessionPublic identifies a created session.
type SessionPublic struct {
	SessionID string `json:"session_id"`
}

// ChatRequest is the body of POST /agent/chat.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResponse is the agent's reply. Tips and Score are optional hints
// emitted by some rules.
type ChatResponse struct {
	Reply string `json:"reply"`
	Tips  string `json:"tips,omitempty"`
	Score int    `json:"score,omitempty"`
}

// SessionDetail is the full transcript view of a session.
type SessionDetail struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
