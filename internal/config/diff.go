package config

import "slices"

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; provider and
// server changes still require a restart.
type ConfigDiff struct {
	ChecklistChanged   bool              // essentials or the destination set changed
	DestinationChanges []DestinationDiff // per-destination diffs
	LogLevelChanged    bool
	NewLogLevel        LogLevel
}

// DestinationDiff describes what changed for a single destination key.
type DestinationDiff struct {
	Key             string
	SynonymsChanged bool
	ItemsChanged    bool
	Added           bool
	Removed         bool
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	// Log level
	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	// Essentials
	if !slices.Equal(old.Checklist.Essentials, new.Checklist.Essentials) {
		d.ChecklistChanged = true
	}

	// Build destination lookup maps keyed by key.
	oldDests := make(map[string]*DestinationConfig, len(old.Checklist.Destinations))
	for i := range old.Checklist.Destinations {
		oldDests[old.Checklist.Destinations[i].Key] = &old.Checklist.Destinations[i]
	}
	newDests := make(map[string]*DestinationConfig, len(new.Checklist.Destinations))
	for i := range new.Checklist.Destinations {
		newDests[new.Checklist.Destinations[i].Key] = &new.Checklist.Destinations[i]
	}

	// Detect modified and removed destinations.
	for key, oldDest := range oldDests {
		newDest, exists := newDests[key]
		if !exists {
			d.DestinationChanges = append(d.DestinationChanges, DestinationDiff{
				Key:     key,
				Removed: true,
			})
			d.ChecklistChanged = true
			continue
		}
		dd := DestinationDiff{Key: key}
		if !slices.Equal(oldDest.Synonyms, newDest.Synonyms) {
			dd.SynonymsChanged = true
		}
		if !slices.Equal(oldDest.Items, newDest.Items) {
			dd.ItemsChanged = true
		}
		if dd.SynonymsChanged || dd.ItemsChanged {
			d.DestinationChanges = append(d.DestinationChanges, dd)
			d.ChecklistChanged = true
		}
	}

	// Detect added destinations.
	for key := range newDests {
		if _, exists := oldDests[key]; !exists {
			d.DestinationChanges = append(d.DestinationChanges, DestinationDiff{
				Key:   key,
				Added: true,
			})
			d.ChecklistChanged = true
		}
	}

	return d
}
