package events

import "time"

const TypeQueryAnswered = "QUERY_ANSWERED"

// QueryAnswered is emitted once per /upload_and_query request, after the
// answer has been composed.
type QueryAnswered struct {
	SessionID  string    `json:"session_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Intents    []string  `json:"intents"`
	Branch     string    `json:"branch"`
	ASIN       string    `json:"asin,omitempty"`
	HasImage   bool      `json:"has_image"`
	Fallback   bool      `json:"fallback"`
	LatencyMs  int64     `json:"latency_ms"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (q QueryAnswered) EventType() string {
	return TypeQueryAnswered
}

func (q QueryAnswered) Timestamp() time.Time {
	return q.OccurredAt
}

func (q QueryAnswered) Payload() map[string]interface{} {
	intents := make([]interface{}, len(q.Intents))
	for i, name := range q.Intents {
		intents[i] = name
	}
	return map[string]interface{}{
		"session_id":  q.SessionID,
		"question":    q.Question,
		"answer":      q.Answer,
		"intents":     intents,
		"branch":      q.Branch,
		"asin":        q.ASIN,
		"has_image":   q.HasImage,
		"fallback":    q.Fallback,
		"latency_ms":  q.LatencyMs,
		"occurred_at": q.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
}

var _ Event = QueryAnswered{}
