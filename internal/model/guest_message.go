package model

import "time"

// Kinds of guestbook entries.
const (
	KindPrediction = "prediction"
	KindAdvice     = "advice"
)

// GuestMessage is a prediction or a piece of advice left by a guest.  It
// corresponds to a row in the `guest_messages` table.
//
// Fields:
//
//	ID          – primary key identifier.
//	Kind        – prediction or advice.
//	AuthorName  – name the guest typed in.
//	Body        – free text.
//	GuessedPlace – predicted destination (predictions only).
//	CreatedAt   – timestamp of creation.
type GuestMessage struct {
	ID           uint64    `json:"id"`                     // guest_messages.id
	Kind         string    `json:"kind"`                   // guest_messages.kind
	AuthorName   string    `json:"authorName"`             // guest_messages.author_name
	Body         string    `json:"body"`                   // guest_messages.body
	GuessedPlace string    `json:"guessedPlace,omitempty"` // guest_messages.guessed_place
	CreatedAt    time.Time `json:"createdAt"`              // guest_messages.created_at
}
