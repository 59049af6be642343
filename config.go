package sluice

import (
	"fmt"
	"time"
)

// Config describes where an adapter loads its value set from and,
// optionally, how it watches for remote changes.
type Config struct {
	// URL is the data source connection string handed to the Dialer.
	URL string `json:"url" yaml:"url" mapstructure:"url"`

	// Mandatory requires URL and Query to be set. Defaults to true when nil.
	Mandatory *bool `json:"mandatory,omitempty" yaml:"mandatory,omitempty" mapstructure:"mandatory"`

	// Query is the load query. Params are passed positionally.
	Query  string `json:"query" yaml:"query" mapstructure:"query"`
	Params []any  `json:"params,omitempty" yaml:"params,omitempty" mapstructure:"params"`

	// Watch enables change detection when set.
	Watch *WatchConfig `json:"watch,omitempty" yaml:"watch,omitempty" mapstructure:"watch"`

	// Timeout bounds each individual query, as a duration string.
	// Empty means no timeout.
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout"`
}

// WatchConfig describes the change-detection poll.
type WatchConfig struct {
	Query    string `json:"query" yaml:"query" mapstructure:"query"`
	Params   []any  `json:"params,omitempty" yaml:"params,omitempty" mapstructure:"params"`
	Interval string `json:"interval" yaml:"interval" mapstructure:"interval"`
}

// Bool returns a pointer to v, for setting Config.Mandatory.
func Bool(v bool) *bool {
	return &v
}

// IsMandatory reports whether URL and Query are required.
func (c Config) IsMandatory() bool {
	return c.Mandatory == nil || *c.Mandatory
}

// withDefaults returns a copy of c with defaults merged in. Param slices are
// copied so later changes by the caller do not leak into a running adapter.
func (c Config) withDefaults() Config {
	out := c
	if out.Mandatory == nil {
		out.Mandatory = Bool(true)
	}
	out.Params = append([]any(nil), c.Params...)
	if c.Watch != nil {
		w := *c.Watch
		w.Params = append([]any(nil), c.Watch.Params...)
		out.Watch = &w
	}
	return out
}

// plan is a validated Config with its durations resolved.
type plan struct {
	Config
	interval time.Duration
	timeout  time.Duration
	skip     bool
}

// validate enforces the configuration rules in their fixed order: url, query,
// watch interval, watch query. The first violated rule wins. Durations are
// parsed only once all required fields are present.
//
// A non-mandatory config missing its url or query is valid but yields a plan
// that skips loading entirely.
func validate(c Config, parse func(string) (time.Duration, error)) (plan, error) {
	p := plan{Config: c}
	mandatory := c.IsMandatory()

	if mandatory && c.URL == "" {
		return p, ErrURLRequired
	}
	if mandatory && c.Query == "" {
		return p, ErrQueryRequired
	}
	if c.Watch != nil && c.Watch.Interval == "" {
		return p, ErrWatchIntervalRequired
	}
	if c.Watch != nil && c.Watch.Query == "" {
		return p, ErrWatchQueryRequired
	}

	if c.Watch != nil {
		d, err := parse(c.Watch.Interval)
		if err != nil {
			return p, &ConfigurationError{Message: fmt.Sprintf("watch interval %q is invalid", c.Watch.Interval), Err: err}
		}
		if d <= 0 {
			return p, &ConfigurationError{Message: fmt.Sprintf("watch interval %q must be positive", c.Watch.Interval)}
		}
		p.interval = d
	}

	if c.Timeout != "" {
		d, err := parse(c.Timeout)
		if err != nil {
			return p, &ConfigurationError{Message: fmt.Sprintf("timeout %q is invalid", c.Timeout), Err: err}
		}
		if d < 0 {
			return p, &ConfigurationError{Message: fmt.Sprintf("timeout %q must not be negative", c.Timeout)}
		}
		p.timeout = d
	}

	p.skip = c.URL == "" || c.Query == ""
	return p, nil
}
