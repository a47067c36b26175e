package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return dir
}

func TestReadConfigAppliesGatingDefaults(t *testing.T) {
	dir := writeConfigFile(t, "redis:\n  addr: localhost:6379\n")

	cfg, err := ReadConfig(dir)
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Session.GraceBeforeMinutes != 5 || cfg.Session.GraceAfterMinutes != 15 {
		t.Errorf("grace = %d/%d, want 5/15", cfg.Session.GraceBeforeMinutes, cfg.Session.GraceAfterMinutes)
	}
	if cfg.Session.SweepIntervalSeconds != 60 {
		t.Errorf("SweepIntervalSeconds = %d, want 60", cfg.Session.SweepIntervalSeconds)
	}
	if cfg.Engagement.DailyCap != 2 || cfg.Engagement.EveningHour != 18 {
		t.Errorf("engagement = %d/%d, want 2/18", cfg.Engagement.DailyCap, cfg.Engagement.EveningHour)
	}
}

func TestReadConfigKeepsExplicitZeroEveningHour(t *testing.T) {
	dir := writeConfigFile(t, "engagement:\n  daily_cap: 2\n  evening_hour: 0\n")

	cfg, err := ReadConfig(dir)
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Engagement.EveningHour != 0 {
		t.Errorf("EveningHour = %d, want explicit 0 preserved", cfg.Engagement.EveningHour)
	}
	if cfg.Engagement.DailyCap != 2 {
		t.Errorf("DailyCap = %d, want 2", cfg.Engagement.DailyCap)
	}
}
