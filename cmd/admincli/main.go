// Package main provides the admin CLI entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/19cast/internal/api/connect"
)

var (
	app    = kingpin.New("19cast-admincli", "19cast admin client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Admin token (or set ADMIN_TOKEN env)").Envar("ADMIN_TOKEN").String()

	statusCmd = app.Command("status", "Get session status")

	playCmd   = app.Command("play", "Play a track or playlist, or add it to the queue")
	playQuery = playCmd.Arg("query", "Search terms or URL").Required().String()
	playChan  = playCmd.Flag("channel", "Voice channel ID (default: current or designated)").String()

	streamCmd  = app.Command("stream", "Switch to a live stream")
	streamURL  = streamCmd.Arg("url", "Stream URL (default: configured stream)").String()
	streamChan = streamCmd.Flag("channel", "Voice channel ID (default: current or designated)").String()

	skipCmd   = app.Command("skip", "Skip the current track")
	stopCmd   = app.Command("stop", "Stop playback and disconnect")
	pauseCmd  = app.Command("pause", "Pause playback")
	resumeCmd = app.Command("resume", "Resume playback")

	volumeCmd     = app.Command("volume", "Set the volume")
	volumePercent = volumeCmd.Arg("percent", "Volume 0-100").Required().Int()

	queueCmd = app.Command("queue", "List the queue").Alias("list")
	clearCmd = app.Command("clear", "Clear the queue")

	repeatCmd = app.Command("repeat", "Set repeat mode")
	repeatOn  = repeatCmd.Arg("on", "true or false").Required().Bool()

	autoJoinCmd = app.Command("autojoin", "Set presence auto-join")
	autoJoinOn  = autoJoinCmd.Arg("on", "true or false").Required().Bool()

	watchCmd = app.Command("watch", "Stream notifications until interrupted")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if *token == "" {
		fmt.Println("Error: admin token is required (use --token or ADMIN_TOKEN env)")
		os.Exit(1)
	}

	client := apiconnect.NewAdminServiceClient(http.DefaultClient, *server)
	ctx := context.Background()

	switch command {
	case statusCmd.FullCommand():
		status(ctx, client)
	case playCmd.FullCommand():
		report(client.Play(ctx, authed(&apiconnect.PlayRequest{ChannelID: *playChan, Query: *playQuery})))
	case streamCmd.FullCommand():
		report(client.Stream(ctx, authed(&apiconnect.StreamRequest{ChannelID: *streamChan, URL: *streamURL})))
	case skipCmd.FullCommand():
		report(client.Skip(ctx, authed(&apiconnect.Empty{})))
	case stopCmd.FullCommand():
		report(client.Stop(ctx, authed(&apiconnect.Empty{})))
	case pauseCmd.FullCommand():
		report(client.Pause(ctx, authed(&apiconnect.Empty{})))
	case resumeCmd.FullCommand():
		report(client.Resume(ctx, authed(&apiconnect.Empty{})))
	case volumeCmd.FullCommand():
		report(client.SetVolume(ctx, authed(&apiconnect.SetVolumeRequest{Percent: *volumePercent})))
	case queueCmd.FullCommand():
		listQueue(ctx, client)
	case clearCmd.FullCommand():
		report(client.ClearQueue(ctx, authed(&apiconnect.Empty{})))
	case repeatCmd.FullCommand():
		report(client.SetRepeat(ctx, authed(&apiconnect.SetRepeatRequest{Enabled: *repeatOn})))
	case autoJoinCmd.FullCommand():
		report(client.SetAutoJoin(ctx, authed(&apiconnect.SetAutoJoinRequest{Enabled: *autoJoinOn})))
	case watchCmd.FullCommand():
		watch(client)
	}
}

// authed wraps msg in a request carrying the admin token.
func authed[T any](msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set(apiconnect.AdminTokenHeader, *token)
	return req
}

func report(resp *connect.Response[apiconnect.CommandResponse], err error) {
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if resp.Msg.Success {
		fmt.Println(resp.Msg.Message)
	} else {
		fmt.Printf("Failed: %s\n", resp.Msg.Message)
		os.Exit(2)
	}
}

func status(ctx context.Context, client *apiconnect.AdminServiceClient) {
	resp, err := client.GetStatus(ctx, authed(&apiconnect.Empty{}))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	s := resp.Msg
	fmt.Println("\n=== CURRENT SESSION STATUS ===")
	fmt.Printf("Mode: %s\n", s.Mode)
	if s.Connected {
		fmt.Printf("Connected: %s\n", s.ChannelID)
	} else {
		fmt.Println("Connected: no")
	}
	fmt.Printf("Designated Channel: %s\n", s.DesignatedChannelID)
	fmt.Printf("Volume: %d%%\n", s.Volume)
	fmt.Printf("Paused: %v\n", s.Paused)
	fmt.Printf("Repeat: %v  Shuffle: %v\n", s.Repeat, s.Shuffle)
	fmt.Printf("Auto-join: %v\n", s.AutoJoin)
	fmt.Printf("Queue Size: %d\n", s.QueueSize)
	fmt.Printf("Uptime: %s\n", time.Duration(s.UptimeSeconds)*time.Second)

	if s.StreamURL != "" {
		fmt.Printf("\nStreaming: %s\n", s.StreamURL)
	}
	if s.CurrentTrack != nil {
		fmt.Printf("\nCurrently Playing:\n")
		printTrack("  ", s.CurrentTrack.Title, s.CurrentTrack.Uploader, s.CurrentTrack.SourceRef, s.CurrentTrack.DurationSec)
		fmt.Printf("  Requested by: %s (%s)\n", s.CurrentTrack.RequesterName, s.CurrentTrack.RequesterType)
		if s.Resolving {
			fmt.Println("  Resolving...")
		}
	} else {
		fmt.Println("\nNo track currently playing")
	}

	fmt.Printf("\nListeners (%d):\n", len(s.Listeners))
	for _, l := range s.Listeners {
		fmt.Printf("  %s (%s) since %s\n", l.DisplayName, l.ID, l.JoinedAt)
	}
	fmt.Println()
}

func listQueue(ctx context.Context, client *apiconnect.AdminServiceClient) {
	resp, err := client.ListQueue(ctx, authed(&apiconnect.Empty{}))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if c := resp.Msg.Current; c != nil {
		fmt.Println("Now Playing:")
		printTrack("  ", c.Title, c.Uploader, c.SourceRef, c.DurationSec)
	}
	if len(resp.Msg.Tracks) == 0 {
		fmt.Println("Queue is empty")
		return
	}
	fmt.Printf("Up Next (%d tracks):\n", len(resp.Msg.Tracks))
	for i, t := range resp.Msg.Tracks {
		fmt.Printf("%3d. %s", i+1, t.Title)
		if t.Uploader != "" {
			fmt.Printf(" - %s", t.Uploader)
		}
		if t.RequesterName != "" {
			fmt.Printf(" [%s]", t.RequesterName)
		}
		fmt.Println()
	}
}

func printTrack(indent, title, uploader, ref string, durationSec int) {
	fmt.Printf("%sTitle: %s\n", indent, title)
	if uploader != "" {
		fmt.Printf("%sArtist: %s\n", indent, uploader)
	}
	fmt.Printf("%sSource: %s\n", indent, ref)
	if durationSec > 0 {
		fmt.Printf("%sDuration: %d:%02d\n", indent, durationSec/60, durationSec%60)
	}
}

func watch(client *apiconnect.AdminServiceClient) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stream, err := client.WatchNotifications(ctx, authed(&apiconnect.Empty{}))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer stream.Close()

	for stream.Receive() {
		n := stream.Msg()
		fmt.Printf("[%s] #%d %-18s mode=%-20s %s\n",
			n.Timestamp.Local().Format(time.TimeOnly), n.SequenceNo, n.Type, n.Mode, n.Message)
		if n.Track != nil && n.Message == "" {
			fmt.Printf("    %s\n", n.Track.Title)
		}
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
