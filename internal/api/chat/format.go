package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/osa030/19cast/internal/app/playback"
	"github.com/osa030/19cast/internal/app/session"
)

const queuePreview = 10

func formatQueue(st *session.Status) string {
	if !st.Connected {
		return "❌ Not connected to any voice channel!"
	}
	if st.Mode == playback.ModePlayingLiveStream {
		return "🔴 **Currently Streaming**\nIcecast stream is playing. No queue while streaming."
	}
	if st.Current == nil && len(st.Pending) == 0 {
		return "📭 **Queue is empty!**\nUse `!play <song>` to add music."
	}

	var b strings.Builder
	b.WriteString("🎵 **Music Queue**\n\n")
	if st.Current != nil {
		fmt.Fprintf(&b, "**Now Playing:**\n🎵 %s\n\n", st.Current.DisplayTitle())
	}
	if n := len(st.Pending); n > 0 {
		fmt.Fprintf(&b, "**Up Next (%d tracks):**\n", n)
		for i, d := range st.Pending {
			if i == queuePreview {
				break
			}
			fmt.Fprintf(&b, "`%d.` %s\n", i+1, d.DisplayTitle())
		}
		if n > queuePreview {
			fmt.Fprintf(&b, "... and %d more tracks\n", n-queuePreview)
		}
	}
	return b.String()
}

func formatNowPlaying(st *session.Status) string {
	if !st.Connected {
		return "❌ Not connected to any voice channel!"
	}
	if st.Mode == playback.ModePlayingLiveStream {
		return fmt.Sprintf("🔴 **Now Streaming**\n%s", st.StreamURL)
	}
	if st.Current == nil {
		return "⏸️ Nothing is currently playing!"
	}

	var b strings.Builder
	b.WriteString("🎵 **Now Playing**\n\n")
	fmt.Fprintf(&b, "**Title:** %s\n", st.Current.DisplayTitle())
	fmt.Fprintf(&b, "**Artist:** %s\n", st.Current.DisplayUploader())
	if st.Current.Duration > 0 {
		fmt.Fprintf(&b, "**Duration:** %s\n", clock(st.Current.Duration))
	}
	if st.Paused {
		b.WriteString("⏸️ Paused\n")
	}
	if n := len(st.Pending); n > 0 {
		fmt.Fprintf(&b, "\n📋 **%d** track(s) in queue", n)
	}
	return b.String()
}

func formatDebug(st *session.Status) string {
	var b strings.Builder
	b.WriteString("🔧 **Debug Information**\n\n")
	if st.Connected {
		fmt.Fprintf(&b, "✅ **Voice Client:** Connected to <#%s>\n", st.ChannelID)
		fmt.Fprintf(&b, "⏸️ **Is Paused:** %t\n", st.Paused)
	} else {
		b.WriteString("❌ **Voice Client:** Not connected\n")
	}
	fmt.Fprintf(&b, "🎛️ **Mode:** %s\n", st.Mode)
	fmt.Fprintf(&b, "📡 **Is Streaming:** %t\n", st.Mode == playback.ModePlayingLiveStream)
	fmt.Fprintf(&b, "🔊 **Volume:** %d%%\n", int(st.Volume*100+0.5))
	fmt.Fprintf(&b, "🔁 **Repeat:** %t  🔀 **Shuffle:** %t\n", st.Repeat, st.Shuffle)
	fmt.Fprintf(&b, "📋 **Current Track:** %t\n", st.Current != nil)
	if st.Current != nil {
		fmt.Fprintf(&b, "   - Title: %s\n", st.Current.DisplayTitle())
	}
	fmt.Fprintf(&b, "📝 **Queue Size:** %d\n", len(st.Pending))
	if len(st.Pending) > 0 {
		b.WriteString("📋 **Queue Preview:**\n")
		for i, d := range st.Pending {
			if i == 3 {
				break
			}
			fmt.Fprintf(&b, "   %d. %s\n", i+1, d.DisplayTitle())
		}
	}
	fmt.Fprintf(&b, "👥 **Listeners:** %d in <#%s>\n", len(st.Listeners), st.DesignatedChannelID)
	fmt.Fprintf(&b, "🚪 **Auto-rejoin:** %s\n", enabled(st.AutoJoin))
	fmt.Fprintf(&b, "⏱️ **Uptime:** %s\n", st.Uptime.Truncate(time.Second))
	return b.String()
}

// clock formats d as m:ss.
func clock(d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
