package gateway

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/zulandar/wayfarer/internal/dialog"
)

// startCommand begins the weather dialogue.
const startCommand = "/weather"

// weatherButton is the reply-keyboard label that also begins the dialogue.
const weatherButton = "Weather"

const greetingText = "Hi! I am a travel weather bot. I can show the weather for 1 or 5 days " +
	"for the start, end, and intermediate cities of your route.\n" +
	"Type /help for the available commands, or /weather to begin."

const helpText = "Available commands:\n" +
	"/start — greeting and a short description\n" +
	"/help — this message\n" +
	"/weather — build a route and get its forecast"

// Router classifies inbound chat messages and feeds them to the
// Coordinator as dialogue events: commands start or describe the flow,
// plain text answers the current prompt, and button clicks carry choice
// tokens. Bot self-messages are ignored.
type Router struct {
	coordinator *Coordinator
	adapter     Adapter
	botUserID   string // the bot's own user ID (to filter self-messages)
	out         io.Writer
}

// RouterOpts holds parameters for creating a Router.
type RouterOpts struct {
	Coordinator *Coordinator
	Adapter     Adapter
	BotUserID   string    // bot's user ID for self-message filtering
	Out         io.Writer // defaults to os.Stdout
}

// NewRouter creates a Router.
func NewRouter(opts RouterOpts) (*Router, error) {
	if opts.Coordinator == nil {
		return nil, fmt.Errorf("gateway: router: coordinator is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("gateway: router: adapter is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Router{
		coordinator: opts.Coordinator,
		adapter:     opts.Adapter,
		botUserID:   opts.BotUserID,
		out:         out,
	}, nil
}

// Handle classifies and routes a single inbound message. Routing paths:
//  1. Bot self-message → ignore
//  2. Button click → Choice event
//  3. "/start" → greeting, "/help" → help text
//  4. "/weather" or the "Weather" button → Start event
//  5. Plain text → Text event for the session's current prompt
func (r *Router) Handle(ctx context.Context, msg InboundMessage) {
	if r.isSelfMessage(msg) {
		return
	}

	sessionID := SessionKey(msg)

	if msg.ChoiceToken != "" {
		fmt.Fprintf(r.out, "gateway: router: click [session=%s] %q\n", sessionID, msg.ChoiceToken)
		r.coordinator.HandleEvent(ctx, sessionID, msg.ChannelID, dialog.Event{
			Kind:  dialog.EventChoice,
			Token: msg.ChoiceToken,
		})
		return
	}

	text := strings.TrimSpace(msg.Text)
	fmt.Fprintf(r.out, "gateway: router: recv [session=%s user=%s] %q\n",
		sessionID, msg.UserName, truncate(text, 80))

	switch {
	case text == "/start":
		r.reply(ctx, msg.ChannelID, greetingText)

	case text == "/help":
		r.reply(ctx, msg.ChannelID, helpText)

	case text == startCommand || strings.EqualFold(text, weatherButton):
		r.coordinator.HandleEvent(ctx, sessionID, msg.ChannelID, dialog.Event{Kind: dialog.EventStart})

	default:
		r.coordinator.HandleEvent(ctx, sessionID, msg.ChannelID, dialog.Event{
			Kind: dialog.EventText,
			Text: text,
		})
	}
}

// SessionKey derives the dialogue session id for an inbound message. One
// dialogue per user per channel per platform.
func SessionKey(msg InboundMessage) string {
	return msg.Platform + ":" + msg.ChannelID + ":" + msg.UserID
}

func (r *Router) reply(ctx context.Context, channelID, text string) {
	if err := r.adapter.Send(ctx, OutboundMessage{
		ChannelID: channelID,
		Text:      text,
	}); err != nil {
		log.Printf("gateway: router: send reply: %v", err)
	}
}

// isSelfMessage returns true if the message is from the bot itself.
func (r *Router) isSelfMessage(msg InboundMessage) bool {
	return r.botUserID != "" && msg.UserID == r.botUserID
}

// truncate returns s truncated to maxLen with "..." appended if needed.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
