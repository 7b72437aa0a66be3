// Package config loads container settings from a YAML, TOML or JSON file and
// the environment. Environment overrides use the FORMCONTAINER_ prefix with
// dots replaced by underscores, e.g. FORMCONTAINER_SCROLL_OFFSET_TOP.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/goliatone/go-formcontainer/pkg/container"
	"github.com/goliatone/go-formcontainer/pkg/scroll"
)

const (
	envPrefix = "FORMCONTAINER"
	fileName  = "formcontainer"
)

// Config holds container and CLI settings.
type Config struct {
	AutoUpdate bool         `mapstructure:"auto_update"`
	LogLevel   string       `mapstructure:"log_level"`
	Layout     string       `mapstructure:"layout"`
	Sanitize   bool         `mapstructure:"sanitize"`
	Scroll     ScrollConfig `mapstructure:"scroll"`
}

// ScrollConfig holds the default scroll behaviour of ValidateFieldsAndScroll.
type ScrollConfig struct {
	AlignWithTop          bool    `mapstructure:"align_with_top"`
	OnlyScrollIfNeeded    bool    `mapstructure:"only_scroll_if_needed"`
	AllowHorizontalScroll bool    `mapstructure:"allow_horizontal_scroll"`
	OffsetTop             float64 `mapstructure:"offset_top"`
	OffsetBottom          float64 `mapstructure:"offset_bottom"`
	OffsetLeft            float64 `mapstructure:"offset_left"`
	OffsetRight           float64 `mapstructure:"offset_right"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("auto_update", true)
	v.SetDefault("log_level", zerolog.InfoLevel.String())
	v.SetDefault("layout", "")
	v.SetDefault("sanitize", false)
	v.SetDefault("scroll.align_with_top", true)
	v.SetDefault("scroll.only_scroll_if_needed", false)
	v.SetDefault("scroll.allow_horizontal_scroll", false)
	v.SetDefault("scroll.offset_top", 0)
	v.SetDefault("scroll.offset_bottom", 0)
	v.SetDefault("scroll.offset_left", 0)
	v.SetDefault("scroll.offset_right", 0)
}

// Load reads path, or formcontainer.{yaml,toml,json} from the working
// directory when path is empty. A missing default file is not an error; a
// missing explicit file is.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(fileName)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the log level.
func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("config: log_level: %w", err)
	}
	return nil
}

// Level returns the parsed log level, defaulting to info.
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// ScrollOptions converts the scroll section into scroll.Options.
func (c Config) ScrollOptions() scroll.Options {
	s := c.Scroll
	return scroll.Options{
		AlignWithTop:          scroll.Bool(s.AlignWithTop),
		OnlyScrollIfNeeded:    scroll.Bool(s.OnlyScrollIfNeeded),
		AllowHorizontalScroll: scroll.Bool(s.AllowHorizontalScroll),
		OffsetTop:             scroll.Float(s.OffsetTop),
		OffsetBottom:          scroll.Float(s.OffsetBottom),
		OffsetLeft:            scroll.Float(s.OffsetLeft),
		OffsetRight:           scroll.Float(s.OffsetRight),
	}
}

// ContainerOptions turns the configuration into container options.
func (c Config) ContainerOptions(logger zerolog.Logger) []container.Option {
	return []container.Option{
		container.WithAutoUpdate(c.AutoUpdate),
		container.WithLogger(logger),
		container.WithScrollDefaults(c.ScrollOptions()),
	}
}
