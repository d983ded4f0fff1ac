package agent

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

const fenceMarker = "```"

// ExtractFenced locates the first fenced block in model output by scanning
// for the literal fence markers, optionally requiring a language tag. It
// returns the block body and whether one was found; malformed or absent
// fences are a clean miss, never an error.
func ExtractFenced(content, lang string) (string, bool) {
	rest := content
	for {
		start := strings.Index(rest, fenceMarker)
		if start == -1 {
			return "", false
		}
		rest = rest[start+len(fenceMarker):]

		// The opening fence line may carry a language tag.
		newline := strings.IndexByte(rest, '\n')
		if newline == -1 {
			return "", false
		}
		tag := strings.TrimSpace(rest[:newline])
		body := rest[newline+1:]

		end := strings.Index(body, fenceMarker)
		if end == -1 {
			return "", false
		}

		if lang == "" || strings.EqualFold(tag, lang) || tag == "" {
			return strings.TrimSpace(body[:end]), true
		}
		rest = body[end+len(fenceMarker):]
	}
}

// DecodeJSON decodes a fenced json payload from model output into target.
// When the text carries no fenced block, the whole trimmed content is tried
// as JSON. Slightly malformed payloads go through jsonrepair before giving
// up. Returns false when no structured payload could be decoded.
func DecodeJSON(content string, target any) bool {
	payload, ok := ExtractFenced(content, "json")
	if !ok {
		payload = strings.TrimSpace(content)
		if !strings.HasPrefix(payload, "{") && !strings.HasPrefix(payload, "[") {
			return false
		}
	}

	if err := json.Unmarshal([]byte(payload), target); err == nil {
		return true
	}

	repaired, err := jsonrepair.JSONRepair(payload)
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(repaired), target) == nil
}
