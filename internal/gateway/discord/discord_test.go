package discord

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/zulandar/wayfarer/internal/gateway"
)

// --- Mock Discord session ---

type mockSession struct {
	mu           sync.Mutex
	opened       bool
	closeCalled  bool
	openErr      error
	sendErr      error
	sendErrOnce  bool
	sentMessages []sentMessage
	acks         []*discordgo.InteractionResponse
	ackErr       error
	handlers     []interface{}
	removeCount  int
}

type sentMessage struct {
	channelID string
	data      *discordgo.MessageSend
}

func newMockSession() *mockSession {
	return &mockSession{}
}

func (m *mockSession) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != nil {
		return m.openErr
	}
	m.opened = true
	return nil
}

func (m *mockSession) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalled = true
	return nil
}

func (m *mockSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		err := m.sendErr
		if m.sendErrOnce {
			m.sendErr = nil
		}
		return nil, err
	}
	m.sentMessages = append(m.sentMessages, sentMessage{channelID: channelID, data: data})
	return &discordgo.Message{ID: "msg-123"}, nil
}

func (m *mockSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ackErr != nil {
		return m.ackErr
	}
	m.acks = append(m.acks, resp)
	return nil
}

func (m *mockSession) AddHandler(handler interface{}) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.removeCount++
	}
}

// fireMessage invokes the registered MessageCreate handler.
func (m *mockSession) fireMessage(msg *discordgo.MessageCreate) {
	m.mu.Lock()
	handlers := append([]interface{}(nil), m.handlers...)
	m.mu.Unlock()
	for _, h := range handlers {
		if fn, ok := h.(func(*discordgo.Session, *discordgo.MessageCreate)); ok {
			fn(nil, msg)
		}
	}
}

// fireInteraction invokes the registered InteractionCreate handler.
func (m *mockSession) fireInteraction(i *discordgo.InteractionCreate) {
	m.mu.Lock()
	handlers := append([]interface{}(nil), m.handlers...)
	m.mu.Unlock()
	for _, h := range handlers {
		if fn, ok := h.(func(*discordgo.Session, *discordgo.InteractionCreate)); ok {
			fn(nil, i)
		}
	}
}

func (m *mockSession) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sentMessages)
}

func (m *mockSession) lastSent() sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sentMessages[len(m.sentMessages)-1]
}

func (m *mockSession) ackCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.acks)
}

// --- Helper to create a connected, listening adapter ---

func newTestAdapter(t *testing.T) (*Adapter, *mockSession, <-chan gateway.InboundMessage) {
	t.Helper()
	sess := newMockSession()

	a, err := New(AdapterOpts{
		Session:   sess,
		ChannelID: "C_DEFAULT",
	})
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}

	if err := a.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	a.SetBotUserID("BOT_USER_ID")

	inbound, err := a.Listen(context.Background())
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	return a, sess, inbound
}

func receiveInbound(t *testing.T, ch <-chan gateway.InboundMessage) gateway.InboundMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for inbound message")
		return gateway.InboundMessage{}
	}
}

// --- New tests ---

func TestNew_RequiresBotToken(t *testing.T) {
	_, err := New(AdapterOpts{})
	if err == nil {
		t.Fatal("expected error for missing bot token")
	}
	if !strings.Contains(err.Error(), "bot token") {
		t.Errorf("error = %q, want to mention bot token", err.Error())
	}
}

func TestConnect_OpensSession(t *testing.T) {
	sess := newMockSession()
	a, err := New(AdapterOpts{Session: sess})
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	if err := a.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if !sess.opened {
		t.Error("session not opened")
	}
	// Connect is idempotent.
	if err := a.Connect(context.Background()); err != nil {
		t.Fatalf("second connect: %v", err)
	}
}

func TestListen_RequiresConnect(t *testing.T) {
	a, err := New(AdapterOpts{Session: newMockSession()})
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	if _, err := a.Listen(context.Background()); err == nil {
		t.Fatal("expected error before Connect")
	}
}

// --- Inbound tests ---

func TestInbound_TextMessage(t *testing.T) {
	_, sess, inbound := newTestAdapter(t)

	sess.fireMessage(&discordgo.MessageCreate{
		Message: &discordgo.Message{
			ID:        "111",
			ChannelID: "C1",
			Content:   "Moscow",
			Author:    &discordgo.User{ID: "U1", Username: "traveler"},
		},
	})

	msg := receiveInbound(t, inbound)
	if msg.Platform != "discord" || msg.ChannelID != "C1" || msg.UserID != "U1" {
		t.Errorf("inbound = %+v", msg)
	}
	if msg.Text != "Moscow" || msg.ChoiceToken != "" {
		t.Errorf("inbound text = %q token = %q", msg.Text, msg.ChoiceToken)
	}
}

func TestInbound_SelfAndBotMessagesDropped(t *testing.T) {
	_, sess, inbound := newTestAdapter(t)

	sess.fireMessage(&discordgo.MessageCreate{
		Message: &discordgo.Message{
			ID: "111", ChannelID: "C1", Content: "self",
			Author: &discordgo.User{ID: "BOT_USER_ID", Username: "wayfarer"},
		},
	})
	sess.fireMessage(&discordgo.MessageCreate{
		Message: &discordgo.Message{
			ID: "112", ChannelID: "C1", Content: "other bot",
			Author: &discordgo.User{ID: "U9", Username: "otherbot", Bot: true},
		},
	})

	select {
	case msg := <-inbound:
		t.Fatalf("unexpected inbound message: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestInbound_ButtonClickAckedOnce(t *testing.T) {
	_, sess, inbound := newTestAdapter(t)

	sess.fireInteraction(&discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:      discordgo.InteractionMessageComponent,
			ChannelID: "C1",
			Member: &discordgo.Member{
				User: &discordgo.User{ID: "U1", Username: "traveler"},
			},
			Data: discordgo.MessageComponentInteractionData{
				CustomID: "days_5",
			},
		},
	})

	msg := receiveInbound(t, inbound)
	if msg.ChoiceToken != "days_5" {
		t.Errorf("token = %q, want days_5", msg.ChoiceToken)
	}
	if msg.UserID != "U1" {
		t.Errorf("user = %q", msg.UserID)
	}

	if sess.ackCount() != 1 {
		t.Fatalf("acks = %d, want exactly 1", sess.ackCount())
	}
	if sess.acks[0].Type != discordgo.InteractionResponseDeferredMessageUpdate {
		t.Errorf("ack type = %v", sess.acks[0].Type)
	}
}

func TestInbound_NonComponentInteractionIgnored(t *testing.T) {
	_, sess, inbound := newTestAdapter(t)

	sess.fireInteraction(&discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:      discordgo.InteractionApplicationCommand,
			ChannelID: "C1",
		},
	})

	select {
	case msg := <-inbound:
		t.Fatalf("unexpected inbound message: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
	if sess.ackCount() != 0 {
		t.Errorf("acks = %d, want 0", sess.ackCount())
	}
}

// --- Send tests ---

func TestSend_PlainText(t *testing.T) {
	a, sess, _ := newTestAdapter(t)

	err := a.Send(context.Background(), gateway.OutboundMessage{
		ChannelID: "C1",
		Text:      "Enter the start city:",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	sent := sess.lastSent()
	if sent.channelID != "C1" {
		t.Errorf("channel = %q", sent.channelID)
	}
	if sent.data.Content != "Enter the start city:" {
		t.Errorf("content = %q", sent.data.Content)
	}
	if len(sent.data.Components) != 0 || len(sent.data.Files) != 0 {
		t.Errorf("unexpected components/files: %+v", sent.data)
	}
}

func TestSend_ChoicesBecomeButtons(t *testing.T) {
	a, sess, _ := newTestAdapter(t)

	err := a.Send(context.Background(), gateway.OutboundMessage{
		ChannelID: "C1",
		Text:      "Add an intermediate city?",
		Choices: []gateway.Choice{
			{Label: "Yes", Token: "add_city"},
			{Label: "No", Token: "no_city"},
		},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	sent := sess.lastSent()
	if len(sent.data.Components) != 1 {
		t.Fatalf("rows = %d, want 1", len(sent.data.Components))
	}
	row, ok := sent.data.Components[0].(discordgo.ActionsRow)
	if !ok {
		t.Fatalf("component type = %T", sent.data.Components[0])
	}
	if len(row.Components) != 2 {
		t.Fatalf("buttons = %d, want 2", len(row.Components))
	}
	btn := row.Components[0].(discordgo.Button)
	if btn.Label != "Yes" || btn.CustomID != "add_city" {
		t.Errorf("button = %+v", btn)
	}
}

func TestSend_ManyChoicesSplitIntoRows(t *testing.T) {
	a, sess, _ := newTestAdapter(t)

	choices := make([]gateway.Choice, 7)
	for i := range choices {
		choices[i] = gateway.Choice{Label: "city", Token: "city_x"}
	}
	if err := a.Send(context.Background(), gateway.OutboundMessage{
		ChannelID: "C1", Text: "Pick the city to chart:", Choices: choices,
	}); err != nil {
		t.Fatalf("send: %v", err)
	}

	sent := sess.lastSent()
	if len(sent.data.Components) != 2 {
		t.Fatalf("rows = %d, want 2", len(sent.data.Components))
	}
	first := sent.data.Components[0].(discordgo.ActionsRow)
	second := sent.data.Components[1].(discordgo.ActionsRow)
	if len(first.Components) != 5 || len(second.Components) != 2 {
		t.Errorf("row sizes = %d, %d", len(first.Components), len(second.Components))
	}
}

func TestSend_ImageBecomesFile(t *testing.T) {
	a, sess, _ := newTestAdapter(t)

	err := a.Send(context.Background(), gateway.OutboundMessage{
		ChannelID: "C1",
		Text:      "Weather in Paris",
		Image:     []byte("png-bytes"),
		ImageName: "paris_wind.png",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	sent := sess.lastSent()
	if len(sent.data.Files) != 1 {
		t.Fatalf("files = %d, want 1", len(sent.data.Files))
	}
	file := sent.data.Files[0]
	if file.Name != "paris_wind.png" || file.ContentType != "image/png" {
		t.Errorf("file = %+v", file)
	}
}

func TestSend_DefaultChannelFallback(t *testing.T) {
	a, sess, _ := newTestAdapter(t)

	if err := a.Send(context.Background(), gateway.OutboundMessage{Text: "hi"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if sess.lastSent().channelID != "C_DEFAULT" {
		t.Errorf("channel = %q, want C_DEFAULT", sess.lastSent().channelID)
	}
}

func TestSend_RetriesOnRateLimit(t *testing.T) {
	a, sess, _ := newTestAdapter(t)
	a.baseBackoff = time.Millisecond

	sess.mu.Lock()
	sess.sendErr = &discordgo.RESTError{
		Response: &http.Response{StatusCode: 429},
	}
	sess.sendErrOnce = true
	sess.mu.Unlock()

	if err := a.Send(context.Background(), gateway.OutboundMessage{ChannelID: "C1", Text: "hi"}); err != nil {
		t.Fatalf("send after retry: %v", err)
	}
	if sess.sentCount() != 1 {
		t.Errorf("sent = %d, want 1", sess.sentCount())
	}
}

// --- Close tests ---

func TestClose_RemovesHandlersAndClosesChannel(t *testing.T) {
	a, sess, inbound := newTestAdapter(t)

	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !sess.closeCalled {
		t.Error("session not closed")
	}
	if sess.removeCount != 2 {
		t.Errorf("removed handlers = %d, want 2", sess.removeCount)
	}
	if _, ok := <-inbound; ok {
		t.Error("inbound channel not closed")
	}
	// Close is idempotent.
	if err := a.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
