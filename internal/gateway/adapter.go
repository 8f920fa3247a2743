// Package gateway bridges chat platforms (Discord, Slack) to the dialogue
// engine: adapters normalize platform traffic into inbound events, and the
// coordinator turns dialogue effects back into prompts, reports, and charts.
package gateway

import (
	"context"
	"time"
)

// Adapter is the interface that platform-specific implementations must
// satisfy. Each adapter handles connection management and message and
// button traffic for a single chat platform. Button clicks must be
// acknowledged to the platform exactly once, inside the adapter, before the
// click is surfaced as an InboundMessage.
type Adapter interface {
	// Connect establishes a connection to the chat platform.
	Connect(ctx context.Context) error

	// Listen returns a channel of inbound messages from the platform.
	// The channel is closed when the context is cancelled or the adapter
	// is closed. Listen must only be called after Connect.
	Listen(ctx context.Context) (<-chan InboundMessage, error)

	// Send delivers an outbound message to the platform.
	Send(ctx context.Context, msg OutboundMessage) error

	// Close gracefully shuts down the adapter connection.
	Close() error
}

// InboundMessage represents a message or button click received from the
// chat platform. Exactly one of Text and ChoiceToken is set.
type InboundMessage struct {
	Platform    string    // e.g. "slack", "discord"
	ChannelID   string    // platform-specific channel identifier
	UserID      string    // platform-specific user identifier
	UserName    string    // human-readable username
	Text        string    // raw message text (empty for clicks)
	ChoiceToken string    // button callback token (empty for plain text)
	Timestamp   time.Time // when the message was sent
}

// OutboundMessage represents a prompt, report chunk, or chart to be sent to
// the chat platform.
type OutboundMessage struct {
	ChannelID string   // target channel
	Text      string   // message text
	Choices   []Choice // optional buttons rendered under the text
	Image     []byte   // optional image payload (chart PNG)
	ImageName string   // filename for the image upload
}

// Choice is one button: the label the user sees and the token the click
// sends back.
type Choice struct {
	Label string
	Token string
}

// BotUserIDer is an optional interface that adapters can implement to
// expose the bot's own user ID. This enables self-message filtering.
type BotUserIDer interface {
	BotUserID() string
}
