package store

import "time"

// Session is the per-client conversational state. LastASIN and LastAgentText
// are advisory diagnostics; nothing reads them back into answer composition.
type Session struct {
	ID            string    `json:"id"`
	LastASIN      string    `json:"last_asin,omitempty"`
	LastAgentText string    `json:"last_agent_text,omitempty"`
	HasImage      bool      `json:"has_image"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewSession(id string) *Session {
	return &Session{ID: id, UpdatedAt: time.Now()}
}

// Redis hash fields.
const (
	FieldLastASIN      = "last_asin"
	FieldLastAgentText = "last_agent_text"
	FieldHasImage      = "has_image"
	FieldUpdatedAt     = "updated_at"
)
