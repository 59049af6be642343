package sluice

import (
	"errors"
	"testing"
	"time"
)

func TestValidate_Durations(t *testing.T) {
	base := func() Config {
		return Config{
			URL:   "postgres://localhost/app",
			Query: "SELECT data FROM config",
			Watch: &WatchConfig{Query: "SELECT 1", Interval: "1m"},
		}
	}

	t.Run("interval and timeout resolved", func(t *testing.T) {
		c := base()
		c.Timeout = "5s"
		p, err := validate(c, time.ParseDuration)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.interval != time.Minute {
			t.Errorf("expected interval 1m, got %v", p.interval)
		}
		if p.timeout != 5*time.Second {
			t.Errorf("expected timeout 5s, got %v", p.timeout)
		}
		if p.skip {
			t.Error("expected complete config not to skip")
		}
	})

	t.Run("unparseable interval", func(t *testing.T) {
		c := base()
		c.Watch.Interval = "every minute"
		_, err := validate(c, time.ParseDuration)
		var cfgErr *ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected ConfigurationError, got %v", err)
		}
		if cfgErr.Err == nil {
			t.Error("expected parse error to be wrapped")
		}
	})

	t.Run("zero interval", func(t *testing.T) {
		c := base()
		c.Watch.Interval = "0s"
		if _, err := validate(c, time.ParseDuration); KindOf(err) != KindConfiguration {
			t.Fatalf("expected configuration error, got %v", err)
		}
	})

	t.Run("negative timeout", func(t *testing.T) {
		c := base()
		c.Timeout = "-5s"
		if _, err := validate(c, time.ParseDuration); KindOf(err) != KindConfiguration {
			t.Fatalf("expected configuration error, got %v", err)
		}
	})

	t.Run("required fields checked before durations", func(t *testing.T) {
		c := base()
		c.URL = ""
		c.Watch.Interval = "garbage"
		if _, err := validate(c, time.ParseDuration); !errors.Is(err, ErrURLRequired) {
			t.Fatalf("expected url error first, got %v", err)
		}
	})
}

func TestValidate_NonMandatory(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantSkip bool
	}{
		{"missing url", Config{Mandatory: Bool(false), Query: "SELECT 1"}, true},
		{"missing query", Config{Mandatory: Bool(false), URL: "postgres://localhost"}, true},
		{"complete", Config{Mandatory: Bool(false), URL: "postgres://localhost", Query: "SELECT 1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := validate(tt.cfg, time.ParseDuration)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.skip != tt.wantSkip {
				t.Errorf("expected skip=%v, got %v", tt.wantSkip, p.skip)
			}
		})
	}
}

func TestValidate_NonMandatoryStillChecksWatch(t *testing.T) {
	c := Config{Mandatory: Bool(false), Watch: &WatchConfig{Interval: "1s"}}
	if _, err := validate(c, time.ParseDuration); !errors.Is(err, ErrWatchQueryRequired) {
		t.Fatalf("expected watch query error, got %v", err)
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	params := []any{"a"}
	watchParams := []any{"b"}
	c := Config{Params: params, Watch: &WatchConfig{Params: watchParams}}

	out := c.withDefaults()
	params[0] = "changed"
	watchParams[0] = "changed"
	c.Watch.Query = "changed"

	if !out.IsMandatory() {
		t.Error("expected mandatory by default")
	}
	if out.Params[0] != "a" || out.Watch.Params[0] != "b" {
		t.Errorf("expected params to be copied, got %v and %v", out.Params, out.Watch.Params)
	}
	if out.Watch.Query != "" {
		t.Errorf("expected watch config to be copied, got query %q", out.Watch.Query)
	}
	if (Config{Mandatory: Bool(false)}).withDefaults().IsMandatory() {
		t.Error("expected explicit false to be kept")
	}
}
