package reveal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/mission-reveal/internal/fieldcrypt"
	"github.com/iliyamo/mission-reveal/internal/llm"
)

var (
	ErrEmptySourceText   = errors.New("source text is empty")
	ErrInvalidExtraction = errors.New("extraction response is not a JSON object")
)

const extractionPrompt = `Eres un asistente que lee cartas de llamamiento misional.
Devuelve SOLO un objeto JSON, sin texto adicional, con estas claves (cadena vacía si no aparece):
{"missionaryName":"","missionaryAddress":"","missionName":"","language":"","trainingCenter":"","entryDate":"","normalizedText":""}
- entryDate en formato AAAA-MM-DD cuando sea posible.
- normalizedText es el texto de la carta limpio: sin encabezados repetidos, sin saltos de línea rotos.`

// Extraction is the previewable result of reading a call letter.
type Extraction struct {
	Fields         fieldcrypt.Fields `json:"fields"`
	NormalizedText string            `json:"normalizedText"`
}

type extractionReply struct {
	MissionaryName    string `json:"missionaryName"`
	MissionaryAddress string `json:"missionaryAddress"`
	MissionName       string `json:"missionName"`
	Language          string `json:"language"`
	TrainingCenter    string `json:"trainingCenter"`
	EntryDate         string `json:"entryDate"`
	NormalizedText    string `json:"normalizedText"`
}

// Extractor turns call-letter text into record fields using the larger
// completion model. Nothing is stored; the admin confirms separately.
type Extractor struct {
	completer llm.Completer
}

func NewExtractor(c llm.Completer) *Extractor {
	return &Extractor{completer: c}
}

// Extract asks the model for the structured fields found in rawText.
func (e *Extractor) Extract(ctx context.Context, rawText string) (*Extraction, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, ErrEmptySourceText
	}
	out, err := e.completer.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: extractionPrompt},
		{Role: llm.RoleUser, Content: rawText},
	})
	if err != nil {
		return nil, err
	}

	body := jsonObject(out.Text)
	if body == "" {
		return nil, ErrInvalidExtraction
	}
	var r extractionReply
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExtraction, err)
	}
	return &Extraction{
		Fields: fieldcrypt.Fields{
			fieldcrypt.MissionaryName:    strings.TrimSpace(r.MissionaryName),
			fieldcrypt.MissionaryAddress: strings.TrimSpace(r.MissionaryAddress),
			fieldcrypt.MissionName:       strings.TrimSpace(r.MissionName),
			fieldcrypt.Language:          strings.TrimSpace(r.Language),
			fieldcrypt.TrainingCenter:    strings.TrimSpace(r.TrainingCenter),
			fieldcrypt.EntryDate:         strings.TrimSpace(r.EntryDate),
		},
		NormalizedText: strings.TrimSpace(r.NormalizedText),
	}, nil
}

// jsonObject cuts the outermost {...} out of a reply that may be wrapped in
// prose or a code fence.
func jsonObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}
