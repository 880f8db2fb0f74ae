package submit

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/journal-ai/uploader/internal/models"
)

// DecodeResponse parses a success body. Anything but a JSON object is an error;
// the known fields are read defensively.
func DecodeResponse(body []byte) (*models.ProcessResponse, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("invalid JSON response: not an object")
	}

	resp := &models.ProcessResponse{Raw: raw}
	resp.Success, _ = raw["success"].(bool)
	resp.ProcessedPages = toInt(raw["processed_pages"])

	if results, ok := raw["results"].(map[string]any); ok {
		if texts, ok := results["texts"].([]any); ok {
			for _, t := range texts {
				resp.Texts = append(resp.Texts, toText(t))
			}
		}
	}
	return resp, nil
}

// errorMessage extracts a human-readable reason from a failure body.
func errorMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"error", "message", "details"} {
			if s, ok := payload[key].(string); ok && s != "" {
				return s
			}
		}
	}

	return truncate(strings.TrimSpace(string(body)), maxMessageBytes)
}

const maxMessageBytes = 200

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(strings.TrimSpace(n))
		return i
	}
	return 0
}

func toText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
