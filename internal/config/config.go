// Package config loads the argmerge command's own settings.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "ARGMERGE"

// Settings holds the command's settings.
type Settings struct {
	LogLevel      string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	LogFormat     string        `mapstructure:"log_format" validate:"required,oneof=text json"`
	LogFile       string        `mapstructure:"log_file"`
	NoColor       bool          `mapstructure:"no_color"`
	Manifest      string        `mapstructure:"manifest" validate:"required"`
	WatchDebounce time.Duration `mapstructure:"watch_debounce" validate:"gte=0"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")
	v.SetDefault("log_file", "")
	v.SetDefault("no_color", false)
	v.SetDefault("manifest", "argmerge.yaml")
	v.SetDefault("watch_debounce", 100*time.Millisecond)
}

// Load reads settings from ARGMERGE_* environment variables over defaults.
// Overrides, typically from command-line flags, take precedence over both.
func Load(overrides map[string]any) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, val := range overrides {
		v.Set(key, val)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	s.LogLevel = strings.ToLower(s.LogLevel)
	s.LogFormat = strings.ToLower(s.LogFormat)

	if err := validator.New().Struct(s); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return &s, nil
}
