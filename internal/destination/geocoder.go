package destination

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/iliyamo/mission-reveal/internal/llm"
)

// ErrInvalidGeocodeResponse is returned when the provider's answer does not
// hold usable coordinates.
var ErrInvalidGeocodeResponse = errors.New("geocode response has no valid coordinates")

const geocodePrompt = `You convert the name of a missionary mission into the coordinates of its headquarters city.
Reply ONLY with a JSON object of the form {"lat": <number>, "lng": <number>}. No prose.`

// LLMGeocoder asks a completion model for coordinates.
type LLMGeocoder struct {
	completer llm.Completer
}

func NewLLMGeocoder(c llm.Completer) *LLMGeocoder {
	return &LLMGeocoder{completer: c}
}

func (g *LLMGeocoder) Geocode(ctx context.Context, missionName, gazetteer string) (Coordinates, error) {
	system := geocodePrompt
	if gazetteer != "" {
		system += "\n\nReference list of missions and cities:\n" + gazetteer
	}
	out, err := g.completer.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: missionName},
	})
	if err != nil {
		return Coordinates{}, err
	}
	return parseCoordinates(out.Text)
}

func parseCoordinates(text string) (Coordinates, error) {
	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return Coordinates{}, ErrInvalidGeocodeResponse
	}
	var raw struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return Coordinates{}, fmt.Errorf("%w: %v", ErrInvalidGeocodeResponse, err)
	}
	if raw.Lat == nil || raw.Lng == nil {
		return Coordinates{}, ErrInvalidGeocodeResponse
	}
	if *raw.Lat < -90 || *raw.Lat > 90 || *raw.Lng < -180 || *raw.Lng > 180 {
		return Coordinates{}, fmt.Errorf("%w: out of range (%g, %g)", ErrInvalidGeocodeResponse, *raw.Lat, *raw.Lng)
	}
	return Coordinates{Lat: *raw.Lat, Lng: *raw.Lng}, nil
}

// LoadGazetteer reads the optional disambiguation list. An empty path yields
// an empty gazetteer.
func LoadGazetteer(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read gazetteer: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
