// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19cast/internal/api/chat"
	apiconnect "github.com/osa030/19cast/internal/api/connect"
	"github.com/osa030/19cast/internal/api/httpserver"
	"github.com/osa030/19cast/internal/app/filter"
	"github.com/osa030/19cast/internal/app/resolve"
	"github.com/osa030/19cast/internal/app/session"
	"github.com/osa030/19cast/internal/domain/message"
	"github.com/osa030/19cast/internal/infra/config"
	"github.com/osa030/19cast/internal/infra/discord"
	"github.com/osa030/19cast/internal/infra/icecast"
	"github.com/osa030/19cast/internal/infra/logger"
)

var (
	app        = kingpin.New("19cast-server", "19cast voice channel radio and music bot")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: from config)").String()

	listFiltersCmd   = app.Command("list-filters", "List available filters and exit")
	listResolversCmd = app.Command("list-resolvers", "List available resolver types and exit")
)

func init() {
	app.Command("start", "Start the bot (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	switch command {
	case listFiltersCmd.FullCommand():
		printFilters()
		return
	case listResolversCmd.FullCommand():
		printResolvers()
		return
	}

	// Bootstrap logger until the config is read
	if err := logger.Init(loggerConfig(config.LogConfig{Output: "stdout", Level: "info"})); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}
	if err := logger.Init(loggerConfig(cfg.Log)); err != nil {
		zlog.Fatal().Msgf("Failed to initialize logger: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// loggerConfig applies the command-line overrides to the configured logger.
func loggerConfig(c config.LogConfig) logger.Config {
	lc := logger.Config{Output: c.Output, Level: c.Level, File: c.File}
	if *verbose {
		lc.Level = "debug"
	}
	if *logfile != "" {
		lc.Output = *logfile
		lc.File = *logfile
	}
	return lc
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	filters, err := filter.NewChainFromConfig(cfg)
	if err != nil {
		return errors.Wrap(err, "invalid filter config")
	}

	resolver, err := resolve.NewChainFromConfig(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "invalid resolver config")
	}

	dc, err := discord.New(cfg.Discord.Token, cfg.Discord.GuildID)
	if err != nil {
		return errors.Wrap(err, "failed to create discord client")
	}

	sessionMgr, err := session.NewManager(cfg, session.Deps{
		Gateway: discord.NewGateway(dc, discord.AudioConfig{
			FFmpegPath: cfg.Playback.FFmpegPath,
			Bitrate:    cfg.Playback.Bitrate,
		}),
		Resolver:   resolver,
		Prober:     icecast.NewProber(),
		Presence:   dc,
		NowPlaying: icecast.NewLookup(),
		StatusSink: dc,
		Filters:    filters,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create session manager")
	}

	router := chat.NewRouter(chat.Config{
		Prefix:            cfg.Discord.CommandPrefix,
		CommandsPerSecond: cfg.Discord.CommandsPerSecond,
		CommandBurst:      cfg.Discord.CommandBurst,
	}, sessionMgr, dc)
	sessionMgr.Notifications().Subscribe(chat.NewAnnouncer(dc, cfg.Discord.TextChannelID, router.LastChannel))

	dc.OnMessage(func(m message.Message) {
		router.Handle(ctx, m)
	})
	dc.OnPresence(sessionMgr)

	if err := dc.Open(); err != nil {
		return errors.Wrap(err, "failed to connect to discord")
	}
	defer func() {
		if err := dc.Close(); err != nil {
			zlog.Error().Msgf("Failed to close discord session: %v", err)
		}
	}()

	if err := sessionMgr.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start session")
	}

	server := httpserver.New(httpserver.Config{
		Addr:           cfg.Admin.Addr,
		AdminToken:     cfg.Admin.Token,
		AllowedOrigins: cfg.Admin.AllowedOrigins,
	}, apiconnect.NewAdminService(sessionMgr))

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil {
			serverErrCh <- err
		}
	}()

	zlog.Info().Msgf("Bot ready: guild=%s voice_channel=%s prefix=%s", cfg.Discord.GuildID, cfg.Discord.VoiceChannelID, cfg.Discord.CommandPrefix)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		zlog.Info().Msgf("Received %s, shutting down...", sig)
	case err := <-serverErrCh:
		runErr = errors.Wrap(err, "server error")
	}

	// Close the session first so notification streams end and the voice
	// connection is released.
	sessionMgr.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")
	return runErr
}

// printFilters prints available filters.
func printFilters() {
	fmt.Println("Available Filters:")
	registry := filter.GetRegistered()
	for _, name := range filter.RegisteredNames() {
		f := registry[name]()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-30s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}

// printResolvers prints available resolver types.
func printResolvers() {
	fmt.Println("Available Resolvers:")
	names := make([]string, 0, len(resolve.Descriptions))
	for name := range resolve.Descriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-30s - %s\n", name, resolve.Descriptions[name])
	}
}
