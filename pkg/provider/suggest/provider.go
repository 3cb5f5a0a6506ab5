// Package suggest defines the Provider interface for generative checklist
// backends.
//
// A suggest provider takes the transcript of what the user said on the way
// out ("I'm going hiking with the dog") and asks a language model for a short
// list of items to bring. The checklist pipeline overlays these suggestions on
// the built-in destination lists.
//
// Implementations must be safe for concurrent use.
package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Provider is the abstraction over any generative checklist backend.
type Provider interface {
	// Suggest returns checklist items for the given transcript, in the order
	// the model produced them. An empty slice with a nil error means the model
	// had nothing useful to say; callers should fall back to built-in lists.
	Suggest(ctx context.Context, transcript string) ([]string, error)
}

// Prompt builds the instruction sent to the model for a transcript. All
// backends share it so that switching providers does not change the contract:
// the model must answer with bare JSON of the form {"items":[...]}.
func Prompt(transcript string) string {
	var b strings.Builder
	b.WriteString("Return ONLY JSON in the format: {\"items\":[string,...]}.\n\n")
	fmt.Fprintf(&b, "User said: %q\n\n", transcript)
	b.WriteString("Goal: Suggest a short list (5-10) of items to bring.\n")
	b.WriteString("Always include: keys, wallet, phone, ID (unless clearly irrelevant).\n")
	b.WriteString("Avoid duplicates. Use concise nouns.")
	return b.String()
}

// ParseItems extracts the item list from a raw model response. It tolerates
// markdown code fences around the JSON, since several models add them despite
// instructions. Malformed JSON or a non-array "items" field is an error so the
// caller can log what the model actually returned.
func ParseItems(raw string) ([]string, error) {
	text := strings.TrimSpace(raw)
	text = stripCodeFence(text)
	if text == "" {
		return nil, fmt.Errorf("suggest: empty model response")
	}

	var payload struct {
		Items []string `json:"items"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("suggest: parse model response: %w", err)
	}
	return payload.Items, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence, if present.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		// Drop the language tag on the opening fence line.
		text = text[idx+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
