package checklist

import "strings"

const (
	// maxChecklistItems caps the length of any sanitised checklist.
	maxChecklistItems = 10

	// maxItemWords is the heuristic upper bound on words in an "item-like"
	// phrase. Longer candidates are almost certainly explanations.
	maxItemWords = 4
)

// Sanitize validates a candidate item list produced by an untrusted
// generative source. Per candidate it trims whitespace, then drops the
// candidate when it is empty, contains sentence-terminal punctuation
// (a full sentence rather than a noun), or runs longer than four words.
// When at least one candidate survives, the essentials are prepended, the
// list is deduplicated case-insensitively in first-seen order, and the result
// is truncated to ten entries. When nothing survives, Sanitize returns nil so
// the caller keeps its builtin list instead of an essentials-only overlay.
//
// Sanitize is idempotent: feeding its output back in returns the same list.
// Generative output must never reach a checklist without passing through
// here.
func (c *Catalog) Sanitize(candidates []string) []string {
	kept := make([]string, 0, len(candidates))
	for _, cand := range candidates {
		s := strings.TrimSpace(cand)
		if s == "" {
			continue
		}
		if strings.ContainsAny(s, ".!?") {
			continue
		}
		if len(strings.Fields(s)) > maxItemWords {
			continue
		}
		kept = append(kept, s)
	}
	if len(kept) == 0 {
		return nil
	}

	out := dedup(append(c.Essentials(), kept...))
	if len(out) > maxChecklistItems {
		out = out[:maxChecklistItems]
	}
	return out
}
