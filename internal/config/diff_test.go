package config_test

import (
	"testing"

	"github.com/cboiteux2765/AIDoorGuard/internal/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{LogLevel: config.LogInfo},
		Checklist: config.ChecklistConfig{
			Essentials: []string{"keys", "wallet"},
			Destinations: []config.DestinationConfig{
				{Key: "gym", Synonyms: []string{"jim"}, Items: []string{"towel"}},
				{Key: "work", Items: []string{"laptop"}},
			},
		},
	}
}

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()

	d := config.Diff(baseConfig(), baseConfig())
	if d.ChecklistChanged || d.LogLevelChanged || len(d.DestinationChanges) != 0 {
		t.Errorf("expected empty diff, got %+v", d)
	}
}

func TestDiff_LogLevel(t *testing.T) {
	t.Parallel()

	newCfg := baseConfig()
	newCfg.Server.LogLevel = config.LogDebug

	d := config.Diff(baseConfig(), newCfg)
	if !d.LogLevelChanged || d.NewLogLevel != config.LogDebug {
		t.Errorf("expected log level change to debug, got %+v", d)
	}
	if d.ChecklistChanged {
		t.Error("checklist should not be flagged for a log level change")
	}
}

func TestDiff_EssentialsChanged(t *testing.T) {
	t.Parallel()

	newCfg := baseConfig()
	newCfg.Checklist.Essentials = append(newCfg.Checklist.Essentials, "phone")

	d := config.Diff(baseConfig(), newCfg)
	if !d.ChecklistChanged {
		t.Error("expected ChecklistChanged for new essential")
	}
}

func TestDiff_DestinationAddRemoveModify(t *testing.T) {
	t.Parallel()

	newCfg := baseConfig()
	// Modify gym items, remove work, add pool.
	newCfg.Checklist.Destinations = []config.DestinationConfig{
		{Key: "gym", Synonyms: []string{"jim"}, Items: []string{"towel", "water bottle"}},
		{Key: "pool", Items: []string{"swimsuit"}},
	}

	d := config.Diff(baseConfig(), newCfg)
	if !d.ChecklistChanged {
		t.Fatal("expected ChecklistChanged")
	}

	byKey := map[string]config.DestinationDiff{}
	for _, dd := range d.DestinationChanges {
		byKey[dd.Key] = dd
	}
	if dd := byKey["gym"]; !dd.ItemsChanged || dd.SynonymsChanged {
		t.Errorf("gym diff = %+v, want items changed only", dd)
	}
	if dd := byKey["work"]; !dd.Removed {
		t.Errorf("work diff = %+v, want removed", dd)
	}
	if dd := byKey["pool"]; !dd.Added {
		t.Errorf("pool diff = %+v, want added", dd)
	}
}
