package hints

import (
	"fmt"
	"strings"
)

// MissionData is the secret the model is allowed to hint at.
type MissionData struct {
	MissionName    string
	Language       string
	TrainingCenter string
}

// Fixed texts shown to players.
const (
	WelcomeMessage = "¡Hola! Soy el guardián del llamamiento. Puedo darte hasta " +
		"3 pistas sobre el destino de la misión. Pregúntame lo que quieras: el clima, " +
		"la comida, la gente... ¡pero no te diré el nombre del lugar!"
	ExhaustedReply = "Ya usaste tus 3 pistas. ¡Ahora solo queda esperar la revelación!"
	ApologyReply   = "Lo siento, no pude pensar en una respuesta ahora mismo. Intenta de nuevo en un momento."
)

// BuildSystemPrompt returns the hidden instructions seeded as the first
// transcript message. It carries the secret answer, so it must never be sent
// to a client.
func BuildSystemPrompt(m MissionData) string {
	var b strings.Builder
	b.WriteString("Eres el anfitrión de un juego de adivinanzas en una fiesta familiar. ")
	b.WriteString("Los invitados intentan adivinar a qué misión fue llamado un misionero.\n\n")
	b.WriteString("DATOS SECRETOS (nunca los reveles directamente):\n")
	fmt.Fprintf(&b, "- Misión: %s\n", m.MissionName)
	if m.Language != "" {
		fmt.Fprintf(&b, "- Idioma: %s\n", m.Language)
	}
	if m.TrainingCenter != "" {
		fmt.Fprintf(&b, "- Centro de capacitación: %s\n", m.TrainingCenter)
	}
	b.WriteString("\nREGLAS:\n")
	b.WriteString("1. Nunca nombres el país, la ciudad, el idioma ni el continente.\n")
	b.WriteString("2. Nunca menciones un dato que identifique un único lugar (monumentos, platillos o equipos icónicos).\n")
	b.WriteString("3. Cada respuesta contiene como máximo una pista concreta.\n")
	b.WriteString("4. Las pistas van de lo general a lo específico a lo largo de la conversación.\n")
	fmt.Fprintf(&b, "5. Hay un máximo de %d pistas en total.\n", MaxHints)
	fmt.Fprintf(&b, "6. Empieza SIEMPRE tu respuesta con %s si das una pista nueva, o con %s si solo conversas sin dar información nueva.\n", TagHint, TagChatter)
	b.WriteString("7. Responde en español, en no más de tres oraciones, con tono cálido y divertido.\n")
	return b.String()
}
