// Package diagnoses exposes the diagnosis pipeline over HTTP: image
// uploads that run a full diagnosis, follow-up chat about a report,
// and bounding box annotation of analyzed images.
package diagnoses

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultLocation is used when an upload does not name a location.
const DefaultLocation = "London,UK"

// DiagnoseCommand carries an uploaded image and its request fields.
type DiagnoseCommand struct {
	Data        []byte
	Filename    string
	ContentType string
	Location    string
	PlantName   string
	UserQuery   string
}

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single prior turn of a follow-up conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest asks a follow-up question about a diagnosis report.
// Context is the report as returned by the diagnose endpoint.
type ChatRequest struct {
	Message string          `json:"message"`
	Context json.RawMessage `json:"context"`
	History []ChatMessage   `json:"history"`
}

// ChatResponse is the assistant's reply.
type ChatResponse struct {
	Response string `json:"response"`
}

func (r ChatRequest) validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return ErrEmptyMessage
	}
	for i, m := range r.History {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return fmt.Errorf("%w: history[%d] has role %q", ErrInvalidRole, i, m.Role)
		}
	}
	return nil
}

func (r ChatRequest) sections() []string {
	report := strings.TrimSpace(string(r.Context))
	if report == "" || report == "null" {
		report = "No diagnosis report was provided."
	}

	var history strings.Builder
	history.WriteString("Conversation History:")
	if len(r.History) == 0 {
		history.WriteString(" None.")
	}
	for _, m := range r.History {
		fmt.Fprintf(&history, "\n%s: %s", strings.ToUpper(m.Role), m.Content)
	}

	return []string{
		"Diagnosis Report:\n" + report,
		history.String(),
		fmt.Sprintf("USER: %s\n\nASSISTANT:", strings.TrimSpace(r.Message)),
	}
}
