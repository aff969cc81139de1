package hints

import "strings"

// Tags the model puts at the start of each reply.
const (
	TagHint    = "[PISTA]"
	TagChatter = "[CHARLA]"
)

// Class is the classification of one model reply.
type Class int

const (
	Chatter Class = iota
	Hint
)

func (c Class) String() string {
	if c == Hint {
		return "hint"
	}
	return "chatter"
}

// ClassifyReply decides whether raw is a hint and returns the text shown to
// the user with the leading tag removed. Untagged replies count as chatter.
// Only the prefix is inspected; the content itself is never validated.
func ClassifyReply(raw string) (Class, string) {
	text := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(text, TagHint):
		return Hint, strings.TrimSpace(strings.TrimPrefix(text, TagHint))
	case strings.HasPrefix(text, TagChatter):
		return Chatter, strings.TrimSpace(strings.TrimPrefix(text, TagChatter))
	default:
		return Chatter, text
	}
}
