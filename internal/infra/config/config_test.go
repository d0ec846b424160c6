package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/creasty/defaults"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
discord:
  token: file-token
  guild_id: "100"
  voice_channel_id: "200"
  text_channel_id: "300"
stream:
  url: https://radio.example.com/live
playback:
  default_volume: 30
  auto_join: false
resolvers:
  - type: ytdlp
    display_name: YouTube
  - type: spotify
    display_name: Spotify
    settings:
      market: JP
filters:
  duplicate_track_filter:
    enabled: true
  duration_limit_filter:
    enabled: false
    settings:
      max_minutes: 10
admin:
  token: file-admin
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"DISCORD_TOKEN", "ADMIN_TOKEN", "STREAM_URL", "SPOTIFY_CLIENT_ID", "SPOTIFY_CLIENT_SECRET"} {
		t.Setenv(k, "")
	}
}

func validConfig(t *testing.T) Config {
	t.Helper()
	cfg := Config{
		Discord: DiscordConfig{
			Token:          "test-token",
			GuildID:        "100",
			VoiceChannelID: "200",
		},
		Stream: StreamConfig{URL: "https://radio.example.com/live"},
		Resolvers: []ResolverConfig{
			{Type: "ytdlp", DisplayName: "YouTube"},
		},
		Admin: AdminConfig{Token: "test-admin-token"},
	}
	require.NoError(t, defaults.Set(&cfg))
	return cfg
}

func TestLoad(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.Discord.Token)
	assert.Equal(t, "!", cfg.Discord.CommandPrefix)
	assert.Equal(t, 4, cfg.Discord.CommandBurst)
	assert.Equal(t, 30, cfg.Playback.Volume())
	assert.False(t, cfg.Playback.AutoJoinEnabled())
	assert.Equal(t, 50, cfg.Playback.PlaylistLimit)
	assert.Equal(t, "ffmpeg", cfg.Playback.FFmpegPath)
	assert.Equal(t, 2*time.Second, cfg.Playback.StopSettle())
	assert.Equal(t, 10*time.Second, cfg.Stream.ProbeTimeout())
	assert.Equal(t, 30*time.Second, cfg.Stream.StatusRefresh())
	assert.Equal(t, time.Minute, cfg.Stream.StatusBackoff())
	assert.Equal(t, ":8080", cfg.Admin.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.IsFilterEnabled("duplicate_track_filter"))
	assert.False(t, cfg.IsFilterEnabled("duration_limit_filter"))
	assert.False(t, cfg.IsFilterEnabled("unknown"))
	require.Len(t, cfg.Resolvers, 2)
	assert.Equal(t, "JP", cfg.Resolvers[1].Settings["market"])
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "env-token")
	t.Setenv("ADMIN_TOKEN", "env-admin")
	t.Setenv("STREAM_URL", "https://other.example.com/stream")
	t.Setenv("SPOTIFY_CLIENT_ID", "sp-id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "sp-secret")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Discord.Token)
	assert.Equal(t, "env-admin", cfg.Admin.Token)
	assert.Equal(t, "https://other.example.com/stream", cfg.Stream.URL)
	assert.Equal(t, "sp-id", cfg.Resolvers[1].Settings["client_id"])
	assert.Equal(t, "sp-secret", cfg.Resolvers[1].Settings["client_secret"])
	assert.Nil(t, cfg.Resolvers[0].Settings["client_id"])
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "discord: [unterminated"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "discord:\n  token: x\n"))
	assert.Error(t, err)
}

func TestLoad_ZeroVolumeIsKept(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(writeConfig(t, strings.Replace(sampleYAML, "default_volume: 30", "default_volume: 0", 1)))
	require.NoError(t, err)
	require.NotNil(t, cfg.Playback.DefaultVolume)
	assert.Equal(t, 0, cfg.Playback.Volume())

	cfg, err = Load(writeConfig(t, strings.Replace(sampleYAML, "  default_volume: 30\n", "", 1)))
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Playback.Volume())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing discord token",
			mutate:  func(c *Config) { c.Discord.Token = "" },
			wantErr: true,
			errMsg:  "Token",
		},
		{
			name:    "missing voice channel",
			mutate:  func(c *Config) { c.Discord.VoiceChannelID = "" },
			wantErr: true,
			errMsg:  "VoiceChannelID",
		},
		{
			name:    "stream url is not a url",
			mutate:  func(c *Config) { c.Stream.URL = "radio" },
			wantErr: true,
			errMsg:  "URL",
		},
		{
			name:    "volume out of range",
			mutate:  func(c *Config) { v := 150; c.Playback.DefaultVolume = &v },
			wantErr: true,
			errMsg:  "DefaultVolume",
		},
		{
			name:    "no resolvers",
			mutate:  func(c *Config) { c.Resolvers = nil },
			wantErr: true,
			errMsg:  "Resolvers",
		},
		{
			name: "unknown resolver type",
			mutate: func(c *Config) {
				c.Resolvers = append(c.Resolvers, ResolverConfig{Type: "lastfm", DisplayName: "x"})
			},
			wantErr: true,
			errMsg:  "Type",
		},
		{
			name: "spotify without ytdlp",
			mutate: func(c *Config) {
				c.Resolvers = []ResolverConfig{{Type: "spotify", DisplayName: "Spotify"}}
			},
			wantErr: true,
			errMsg:  "ytdlp",
		},
		{
			name:    "missing admin token",
			mutate:  func(c *Config) { c.Admin.Token = "" },
			wantErr: true,
			errMsg:  "Token",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: true,
			errMsg:  "Level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err, "expected validation to fail")
				assert.Contains(t, err.Error(), tt.errMsg,
					"error message should mention the problematic field")
			} else {
				assert.NoError(t, err, "expected validation to pass")
			}
		})
	}
}

func TestConfig_GetMessage(t *testing.T) {
	cfg := &Config{Messages: MessagesConfig{
		DefaultError:          "nope",
		DuplicateTrack:        "dup",
		DurationLimitExceeded: "too long",
	}}

	tests := []struct {
		code string
		want string
	}{
		{"duplicate_track", "dup"},
		{"duration_limit_exceeded", "too long"},
		{"something_else", "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.GetMessage(tt.code))
		})
	}
}

func TestPlaybackConfig_AutoJoinEnabled(t *testing.T) {
	yes, no := true, false
	assert.True(t, PlaybackConfig{}.AutoJoinEnabled())
	assert.True(t, PlaybackConfig{AutoJoin: &yes}.AutoJoinEnabled())
	assert.False(t, PlaybackConfig{AutoJoin: &no}.AutoJoinEnabled())
}
