// Package checklist implements the destination-inference and
// checklist-generation pipeline at the heart of AIDoorGuard.
//
// A spoken transcript flows through the pipeline in four steps: the text is
// normalised into word tokens, a cascade of matching strategies maps it to a
// known destination, the catalog resolves that destination into a packing
// list, and when a generative suggestion provider is configured the
// provider's output is sanitised and may replace the builtin list.
//
// All tables (destinations, synonyms, items, essentials) are immutable after
// construction, so every type in this package except [Session] is safe for
// concurrent use without locking.
package checklist

import "strings"

// DestinationKey identifies a place the user may be heading to (e.g. "gym").
// The fallback stage of the matcher may produce keys outside the catalog;
// [Catalog.Resolve] treats those as "essentials only".
type DestinationKey string

// Unknown is the sentinel returned when no destination could be inferred at
// all, not even a fallback token.
const Unknown DestinationKey = ""

// Destination declares one catalog entry: a canonical key, the aliases and
// common mis-hearings that should map to it, and the extra items to recommend.
type Destination struct {
	Key      DestinationKey
	Synonyms []string
	Items    []string
}

// Catalog is the immutable lookup table behind the pipeline: destination keys
// in declared order, their synonym pools, their item lists, and the essentials
// included in every checklist. Construct it once at startup with [NewCatalog]
// or [DefaultCatalog] and share it freely.
type Catalog struct {
	keys       []DestinationKey
	synonyms   map[DestinationKey][]string
	items      map[DestinationKey][]string
	essentials []string
}

// NewCatalog builds a Catalog from the given essentials and destination
// entries. The declared order of dests fixes the iteration order used by the
// matcher's tie-breaks, so it must be stable across restarts. Duplicate keys
// keep the first entry. Passing nil essentials uses the default essentials
// set (keys, wallet, phone, ID).
func NewCatalog(essentials []string, dests []Destination) *Catalog {
	if essentials == nil {
		essentials = defaultEssentials()
	}
	c := &Catalog{
		essentials: append([]string(nil), essentials...),
		synonyms:   make(map[DestinationKey][]string, len(dests)),
		items:      make(map[DestinationKey][]string, len(dests)),
	}
	for _, d := range dests {
		if d.Key == Unknown {
			continue
		}
		if _, seen := c.items[d.Key]; seen {
			continue
		}
		c.keys = append(c.keys, d.Key)
		c.synonyms[d.Key] = append([]string(nil), d.Synonyms...)
		c.items[d.Key] = append([]string(nil), d.Items...)
	}
	return c
}

// DefaultCatalog returns the builtin household catalog.
func DefaultCatalog() *Catalog {
	return NewCatalog(defaultEssentials(), []Destination{
		{
			Key:      "gym",
			Synonyms: []string{"jim", "the gym", "workout", "fitness", "training"},
			Items:    []string{"water bottle", "towel", "headphones", "gym shoes", "deodorant"},
		},
		{
			Key:      "class",
			Synonyms: []string{"lecture", "course", "seminar"},
			Items:    []string{"laptop", "charger", "notebook", "pen"},
		},
		{
			Key:      "campus",
			Synonyms: []string{"university", "uni", "school", "college"},
			Items:    []string{"laptop", "charger", "notebook", "pen"},
		},
		{
			Key:      "work",
			Synonyms: []string{"office", "job", "workplace"},
			Items:    []string{"laptop", "charger", "badge", "lunch"},
		},
		{
			Key:      "grocery",
			Synonyms: []string{"groceries", "supermarket", "market"},
			Items:    []string{"reusable bags", "shopping list", "wallet"},
		},
		{
			Key:      "store",
			Synonyms: []string{"shop", "mall"},
			Items:    []string{"reusable bags", "shopping list"},
		},
	})
}

func defaultEssentials() []string {
	return []string{"keys", "wallet", "phone", "ID"}
}

// Keys returns the destination keys in declared order. The returned slice is
// a copy.
func (c *Catalog) Keys() []DestinationKey {
	return append([]DestinationKey(nil), c.keys...)
}

// Synonyms returns the alias list declared for key, or nil for unknown keys.
func (c *Catalog) Synonyms(key DestinationKey) []string {
	return append([]string(nil), c.synonyms[key]...)
}

// Essentials returns the items included in every checklist.
func (c *Catalog) Essentials() []string {
	return append([]string(nil), c.essentials...)
}

// Known reports whether key is a declared catalog destination.
func (c *Catalog) Known(key DestinationKey) bool {
	_, ok := c.items[key]
	return ok
}

// Resolve maps a destination key to its full checklist: the essentials
// followed by the destination's extra items, deduplicated case-insensitively
// with first-seen order preserved. Keys outside the catalog, including
// fallback tokens produced by the matcher, yield essentials only.
func (c *Catalog) Resolve(key DestinationKey) []string {
	return dedup(append(c.Essentials(), c.items[key]...))
}

// dedup trims each entry, drops empties, and removes case-insensitive
// duplicates while preserving the order in which entries were first seen.
func dedup(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		s := strings.TrimSpace(it)
		if s == "" {
			continue
		}
		k := strings.ToLower(s)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}
