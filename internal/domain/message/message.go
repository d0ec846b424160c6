// Package message provides the incoming chat Message domain entity.
package message

// Message is a text message posted in the guild.
type Message struct {
	ID         string
	GuildID    string
	ChannelID  string
	AuthorID   string
	AuthorName string
	AuthorBot  bool
	Content    string
}
