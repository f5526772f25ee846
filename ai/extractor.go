package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mindweave/mindweave/journey"
)

// Extraction is the structured result of labeling one text.
type Extraction struct {
	Distortions      []journey.DistortionDetection `json:"distortions"`
	MeasuredSeverity float64                       `json:"measured_severity"`
}

// Extractor labels free text with cognitive distortions via the LLM.
type Extractor struct {
	chat ChatService
}

// NewExtractor creates an extractor on top of a chat service.
func NewExtractor(chat ChatService) *Extractor {
	return &Extractor{chat: chat}
}

// Extract labels the given text. Detections with labels outside the closed
// vocabulary are dropped; confidence and severity are clamped to [0,1]. On a
// model failure the caller receives the error and decides whether to degrade.
func (x *Extractor) Extract(ctx context.Context, text string, expectedSeverity float64) (*Extraction, error) {
	prompt := buildExtractionPrompt(text, expectedSeverity)

	raw, err := x.chat.Chat(ctx, ChatRequest{
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: 0.3,
		MaxTokens:   800,
	})
	if err != nil {
		return nil, fmt.Errorf("distortion extraction: %w", err)
	}

	var extraction Extraction
	if err := json.Unmarshal([]byte(StripJSONFences(raw)), &extraction); err != nil {
		return nil, fmt.Errorf("distortion extraction: decode response: %w", err)
	}

	kept := extraction.Distortions[:0]
	for _, d := range extraction.Distortions {
		if !journey.IsValidDistortion(d.Type) {
			slog.Warn("dropping unknown distortion label", "type", d.Type)
			continue
		}
		d.Confidence = clamp01(d.Confidence)
		kept = append(kept, d)
	}
	extraction.Distortions = kept
	extraction.MeasuredSeverity = clamp01(extraction.MeasuredSeverity)
	return &extraction, nil
}

func buildExtractionPrompt(text string, expectedSeverity float64) string {
	return fmt.Sprintf(`Analyze this journal entry for cognitive distortions.

Entry: %q
Expected severity: %.2f

Extract all distortions present with their exact phrases.
Available distortion types:
%s

Return ONLY valid JSON:
{
  "distortions": [
    {"type": "distortion_key", "phrase": "exact quote", "confidence": 0.0}
  ],
  "measured_severity": 0.0
}`, text, expectedSeverity, strings.Join(journey.DistortionVocabLines(), "\n"))
}

// StripJSONFences removes a markdown code fence around a JSON payload.
func StripJSONFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if idx := strings.Index(raw, "```json"); idx >= 0 {
		raw = raw[idx+len("```json"):]
		if end := strings.Index(raw, "```"); end >= 0 {
			raw = raw[:end]
		}
	} else if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```")
		if end := strings.Index(raw, "```"); end >= 0 {
			raw = raw[:end]
		}
	}
	return strings.TrimSpace(raw)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
