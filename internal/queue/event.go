// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

// QueueName is the durable queue carrying every reveal event.
const QueueName = "reveal.events"

// Event types.
const (
	TypeRevealToggled = "reveal.toggled"
	TypeSecretUpdated = "secret.updated"
)

// RevealEvent is published after a successful admin mutation of the secret
// record. It never carries sensitive field values, only enough for an audit
// trail.
type RevealEvent struct {
	Type        string   `json:"type"`
	RecordID    string   `json:"record_id"`
	IsRevealed  bool     `json:"is_revealed"`
	OpeningDate string   `json:"opening_date,omitempty"`
	Fields      []string `json:"fields,omitempty"`
	OccurredAt  string   `json:"occurred_at"`
}
