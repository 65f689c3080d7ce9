package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"devforge/internal/models"
)

// parseGenerationOutput extracts the structured JSON payload from a model
// reply. Models ignore the "no markdown" instruction often enough that the
// parser also handles fenced blocks and surrounding prose.
func parseGenerationOutput(output string) (*models.GenerationResult, error) {
	output = strings.TrimSpace(output)

	// Direct JSON reply.
	if result, ok := tryParse(output); ok {
		return result, nil
	}

	// ```json fenced block.
	if idx := strings.Index(output, "```json"); idx >= 0 {
		rest := output[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			if result, ok := tryParse(strings.TrimSpace(rest[:end])); ok {
				return result, nil
			}
		}
	}

	// First balanced-looking object in surrounding prose.
	if start := strings.Index(output, "{"); start >= 0 {
		if end := strings.LastIndex(output, "}"); end > start {
			if result, ok := tryParse(output[start : end+1]); ok {
				return result, nil
			}
		}
	}

	return nil, fmt.Errorf("model output is not valid JSON")
}

func tryParse(s string) (*models.GenerationResult, bool) {
	var result models.GenerationResult
	if err := json.Unmarshal([]byte(s), &result); err != nil {
		return nil, false
	}
	return &result, true
}
