package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/zoobzio/sluice"
)

// settings is the CLI configuration file.
type settings struct {
	Source sluice.Config `mapstructure:"source"`

	// Column selects one column of the first row. Empty prints every row.
	Column string `mapstructure:"column"`

	// Format decodes Column as "json" or "yaml". Empty prints it as stored.
	Format string `mapstructure:"format"`

	Broadcast broadcastSettings `mapstructure:"broadcast"`
}

// broadcastSettings enables Redis change fan-out when Addr is set.
type broadcastSettings struct {
	Addr    string `mapstructure:"addr"`
	Channel string `mapstructure:"channel"`
	Source  string `mapstructure:"source"`
}

// loadSettings reads path and overlays SLUICE_* environment variables,
// e.g. SLUICE_SOURCE_URL.
func loadSettings(path string) (settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("SLUICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("broadcast.channel", "sluice:changes")

	if err := v.ReadInConfig(); err != nil {
		return settings{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if s.Format != "" && s.Column == "" {
		return settings{}, fmt.Errorf("format %q requires a column", s.Format)
	}
	if _, err := codecFor(s.Format); err != nil {
		return settings{}, err
	}
	return s, nil
}

// transforms builds the post-processing chain for s.
func (s settings) transforms() []sluice.Transform {
	if s.Column == "" {
		return nil
	}
	if s.Format == "" {
		return []sluice.Transform{sluice.Column(s.Column)}
	}
	codec, _ := codecFor(s.Format)
	return []sluice.Transform{sluice.Decode[any](s.Column, codec)}
}

func codecFor(format string) (sluice.Codec, error) {
	switch format {
	case "":
		return nil, nil
	case "json":
		return sluice.JSONCodec{}, nil
	case "yaml":
		return sluice.YAMLCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}
