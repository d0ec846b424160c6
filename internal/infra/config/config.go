// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Discord   DiscordConfig           `yaml:"discord"`
	Stream    StreamConfig            `yaml:"stream"`
	Playback  PlaybackConfig          `yaml:"playback"`
	Resolvers []ResolverConfig        `yaml:"resolvers" validate:"required,min=1,dive"`
	Filters   map[string]FilterConfig `yaml:"filters"`
	Admin     AdminConfig             `yaml:"admin"`
	Log       LogConfig               `yaml:"log"`
	Messages  MessagesConfig          `yaml:"messages"`
}

// DiscordConfig represents the chat platform connection.
type DiscordConfig struct {
	Token             string  `yaml:"token" validate:"required"`
	GuildID           string  `yaml:"guild_id" validate:"required"`
	VoiceChannelID    string  `yaml:"voice_channel_id" validate:"required"`
	TextChannelID     string  `yaml:"text_channel_id"`
	CommandPrefix     string  `yaml:"command_prefix" default:"!"`
	CommandsPerSecond float64 `yaml:"commands_per_second" default:"2" validate:"gt=0"`
	CommandBurst      int     `yaml:"command_burst" default:"4" validate:"gte=1"`
}

// StreamConfig represents the default live stream.
type StreamConfig struct {
	URL              string `yaml:"url" validate:"required,url"`
	ProbeTimeoutMs   int    `yaml:"probe_timeout_ms" default:"10000" validate:"gte=100"`
	StatusRefreshSec int    `yaml:"status_refresh_sec" default:"30" validate:"gte=1"`
	StatusBackoffSec int    `yaml:"status_backoff_sec" default:"60" validate:"gte=1"`
}

// PlaybackConfig represents playback control configuration.
type PlaybackConfig struct {
	DefaultVolume     *int   `yaml:"default_volume" default:"50" validate:"omitempty,gte=0,lte=100"`
	StopSettleMs      int    `yaml:"stop_settle_ms" default:"2000" validate:"gte=0,lte=30000"`
	ResolveTimeoutSec int    `yaml:"resolve_timeout_sec" default:"60" validate:"gte=1"`
	ConnectTimeoutSec int    `yaml:"connect_timeout_sec" default:"15" validate:"gte=1"`
	PlaylistLimit     int    `yaml:"playlist_limit" default:"50" validate:"gte=1,lte=500"`
	AutoJoin          *bool  `yaml:"auto_join" default:"true"`
	FFmpegPath        string `yaml:"ffmpeg_path" default:"ffmpeg"`
	Bitrate           int    `yaml:"bitrate" default:"96000" validate:"gte=8000,lte=512000"`
}

// ResolverConfig represents a single resolver provider configuration.
type ResolverConfig struct {
	Type        string         `yaml:"type" validate:"required,oneof=ytdlp spotify"`
	DisplayName string         `yaml:"display_name" validate:"required"`
	Settings    map[string]any `yaml:"settings"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// AdminConfig represents the admin RPC server.
type AdminConfig struct {
	Addr           string   `yaml:"addr" default:":8080"`
	Token          string   `yaml:"token" validate:"required"`
	AllowedOrigins []string `yaml:"allowed_origins" validate:"dive,required"`
}

// LogConfig represents logger configuration.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn warning error"`
	Output string `yaml:"output" default:"stdout"`
	File   string `yaml:"file"`
}

// MessagesConfig represents user-facing messages.
type MessagesConfig struct {
	DefaultError          string `yaml:"default_error"`
	DuplicateTrack        string `yaml:"duplicate_track" default:"This track is already in the queue."`
	DurationLimitExceeded string `yaml:"duration_limit_exceeded" default:"This track is outside the allowed length."`
}

// secrets are the values that may come from the environment instead of the file.
type secrets struct {
	DiscordToken        string `env:"DISCORD_TOKEN"`
	AdminToken          string `env:"ADMIN_TOKEN"`
	StreamURL           string `env:"STREAM_URL"`
	SpotifyClientID     string `env:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `env:"SPOTIFY_CLIENT_SECRET"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	if err := cfg.overrideFromEnv(); err != nil {
		return nil, errors.Wrap(err, "failed to read environment")
	}

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() error {
	var s secrets
	if err := env.Parse(&s); err != nil {
		return err
	}

	if s.DiscordToken != "" {
		c.Discord.Token = s.DiscordToken
	}
	if s.AdminToken != "" {
		c.Admin.Token = s.AdminToken
	}
	if s.StreamURL != "" {
		c.Stream.URL = s.StreamURL
	}
	for i := range c.Resolvers {
		if c.Resolvers[i].Type != "spotify" {
			continue
		}
		if c.Resolvers[i].Settings == nil {
			c.Resolvers[i].Settings = map[string]any{}
		}
		if s.SpotifyClientID != "" {
			c.Resolvers[i].Settings["client_id"] = s.SpotifyClientID
		}
		if s.SpotifyClientSecret != "" {
			c.Resolvers[i].Settings["client_secret"] = s.SpotifyClientSecret
		}
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	hasYtdlp := false
	for _, r := range c.Resolvers {
		if r.Type == "ytdlp" {
			hasYtdlp = true
		}
	}
	if !hasYtdlp {
		return errors.New("a ytdlp resolver is required")
	}

	return nil
}

// GetMessage returns the message for the given rejection code.
func (c *Config) GetMessage(code string) string {
	switch code {
	case "duplicate_track":
		return c.Messages.DuplicateTrack
	case "duration_limit_exceeded":
		return c.Messages.DurationLimitExceeded
	default:
		return c.Messages.DefaultError
	}
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// AutoJoinEnabled reports whether presence auto-join starts enabled.
func (p PlaybackConfig) AutoJoinEnabled() bool {
	return p.AutoJoin == nil || *p.AutoJoin
}

// Volume returns the starting volume in percent. An explicit 0 is kept.
func (p PlaybackConfig) Volume() int {
	if p.DefaultVolume == nil {
		return 50
	}
	return *p.DefaultVolume
}

// StopSettle returns how long to wait for a stopped pipe to release the voice connection.
func (p PlaybackConfig) StopSettle() time.Duration {
	return time.Duration(p.StopSettleMs) * time.Millisecond
}

// ResolveTimeout returns the limit for one resolver call.
func (p PlaybackConfig) ResolveTimeout() time.Duration {
	return time.Duration(p.ResolveTimeoutSec) * time.Second
}

// ConnectTimeout returns the limit for joining a voice channel.
func (p PlaybackConfig) ConnectTimeout() time.Duration {
	return time.Duration(p.ConnectTimeoutSec) * time.Second
}

// ProbeTimeout returns the limit for a stream reachability check.
func (s StreamConfig) ProbeTimeout() time.Duration {
	return time.Duration(s.ProbeTimeoutMs) * time.Millisecond
}

// StatusRefresh returns the status label refresh interval.
func (s StreamConfig) StatusRefresh() time.Duration {
	return time.Duration(s.StatusRefreshSec) * time.Second
}

// StatusBackoff returns the refresh interval used after a failure.
func (s StreamConfig) StatusBackoff() time.Duration {
	return time.Duration(s.StatusBackoffSec) * time.Second
}
