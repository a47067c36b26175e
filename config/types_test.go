package config

import "testing"

func validConfig() Config {
	var cfg Config
	cfg.Session.GraceBeforeMinutes = 5
	cfg.Session.GraceAfterMinutes = 15
	cfg.Session.SweepIntervalSeconds = 60
	cfg.Engagement.DailyCap = 2
	cfg.Engagement.EveningHour = 18
	return cfg
}

func TestValidateAcceptsDeliberateZeros(t *testing.T) {
	// An any-hour evening rule and a zero pre-start grace are legal choices;
	// Validate must not rewrite them.
	cfg := validConfig()
	cfg.Session.GraceBeforeMinutes = 0
	cfg.Engagement.EveningHour = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Session.GraceBeforeMinutes != 0 {
		t.Errorf("GraceBeforeMinutes = %d, want 0", cfg.Session.GraceBeforeMinutes)
	}
	if cfg.Engagement.EveningHour != 0 {
		t.Errorf("EveningHour = %d, want 0", cfg.Engagement.EveningHour)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative grace before", func(c *Config) { c.Session.GraceBeforeMinutes = -1 }},
		{"negative grace after", func(c *Config) { c.Session.GraceAfterMinutes = -5 }},
		{"zero sweep interval", func(c *Config) { c.Session.SweepIntervalSeconds = 0 }},
		{"negative daily cap", func(c *Config) { c.Engagement.DailyCap = -1 }},
		{"evening hour past midnight", func(c *Config) { c.Engagement.EveningHour = 24 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestValidateKeepsExplicitValues(t *testing.T) {
	cfg := validConfig()
	cfg.Session.GraceBeforeMinutes = 10
	cfg.Session.GraceAfterMinutes = 30
	cfg.Engagement.DailyCap = 3
	cfg.Engagement.EveningHour = 20

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.Session.GraceBeforeMinutes != 10 || cfg.Session.GraceAfterMinutes != 30 {
		t.Errorf("grace = %d/%d, want 10/30", cfg.Session.GraceBeforeMinutes, cfg.Session.GraceAfterMinutes)
	}
	if cfg.Engagement.DailyCap != 3 || cfg.Engagement.EveningHour != 20 {
		t.Errorf("engagement = %d/%d, want 3/20", cfg.Engagement.DailyCap, cfg.Engagement.EveningHour)
	}
}
