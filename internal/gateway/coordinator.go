package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"gorm.io/gorm"

	"github.com/zulandar/wayfarer/internal/chart"
	"github.com/zulandar/wayfarer/internal/dialog"
	"github.com/zulandar/wayfarer/internal/locate"
	"github.com/zulandar/wayfarer/internal/models"
	"github.com/zulandar/wayfarer/internal/report"
	"github.com/zulandar/wayfarer/internal/weather"
)

// Coordinator drives dialogue sessions: it applies inbound events to the
// session store and executes the resulting effects (prompts, report
// delivery, chart delivery) against the adapter. Effects run before the new
// state commits, so a transition is atomic with its side effects.
type Coordinator struct {
	store    *dialog.Store
	adapter  Adapter
	reporter *report.Aggregator
	resolver locate.Resolver
	provider weather.Provider
	renderer chart.Renderer
	db       *gorm.DB
	out      io.Writer
}

// CoordinatorOpts holds parameters for creating a Coordinator.
type CoordinatorOpts struct {
	Adapter  Adapter
	Reporter *report.Aggregator
	Resolver locate.Resolver
	Provider weather.Provider
	Renderer chart.Renderer
	Store    *dialog.Store // defaults to a fresh store
	DB       *gorm.DB      // optional; enables report delivery audit rows
	Out      io.Writer     // defaults to os.Stdout
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(opts CoordinatorOpts) (*Coordinator, error) {
	if opts.Adapter == nil {
		return nil, fmt.Errorf("gateway: coordinator: adapter is required")
	}
	if opts.Reporter == nil {
		return nil, fmt.Errorf("gateway: coordinator: reporter is required")
	}
	if opts.Resolver == nil {
		return nil, fmt.Errorf("gateway: coordinator: resolver is required")
	}
	if opts.Provider == nil {
		return nil, fmt.Errorf("gateway: coordinator: provider is required")
	}
	if opts.Renderer == nil {
		return nil, fmt.Errorf("gateway: coordinator: renderer is required")
	}
	store := opts.Store
	if store == nil {
		store = dialog.NewStore()
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Coordinator{
		store:    store,
		adapter:  opts.Adapter,
		reporter: opts.Reporter,
		resolver: opts.Resolver,
		provider: opts.Provider,
		renderer: opts.Renderer,
		db:       opts.DB,
		out:      out,
	}, nil
}

// Store exposes the session store for eviction and dashboard snapshots.
func (c *Coordinator) Store() *dialog.Store {
	return c.store
}

// HandleEvent applies one inbound event to the session and executes the
// resulting effects. Unhandled (malformed, duplicate, stray) events are
// dropped without a state change. The state commits only after every
// effect has run, so a crashed delivery never advances the dialogue.
func (c *Coordinator) HandleEvent(ctx context.Context, sessionID, channelID string, ev dialog.Event) {
	c.store.With(sessionID, func(sess *dialog.Session) {
		next, effects, handled := dialog.Transition(*sess, ev)
		if !handled {
			fmt.Fprintf(c.out, "gateway: coordinator: drop event [session=%s state=%s]\n", sessionID, sess.State)
			return
		}
		for _, eff := range effects {
			c.runEffect(ctx, sessionID, channelID, eff)
		}
		*sess = next
	})
}

func (c *Coordinator) runEffect(ctx context.Context, sessionID, channelID string, eff dialog.Effect) {
	switch eff.Kind {
	case dialog.EffectPromptStartCity:
		c.send(ctx, OutboundMessage{ChannelID: channelID, Text: "Enter the start city:"})

	case dialog.EffectPromptEndCity:
		c.send(ctx, OutboundMessage{ChannelID: channelID, Text: "Enter the destination city:"})

	case dialog.EffectPromptAddMore:
		c.send(ctx, OutboundMessage{
			ChannelID: channelID,
			Text:      "Add an intermediate city?",
			Choices: []Choice{
				{Label: "Yes", Token: dialog.TokenAddCity},
				{Label: "No", Token: dialog.TokenNoCity},
			},
		})

	case dialog.EffectPromptIntermediate:
		c.send(ctx, OutboundMessage{
			ChannelID: channelID,
			Text:      fmt.Sprintf("Enter intermediate city %d:", eff.Ordinal),
		})

	case dialog.EffectPromptForecastDays:
		c.send(ctx, OutboundMessage{
			ChannelID: channelID,
			Text:      "Choose the forecast period:",
			Choices: []Choice{
				{Label: "1 day", Token: dialog.TokenDays1},
				{Label: "5 days", Token: dialog.TokenDays5},
			},
		})

	case dialog.EffectPromptWantsGraph:
		c.send(ctx, OutboundMessage{
			ChannelID: channelID,
			Text:      "Would you like a chart?",
			Choices: []Choice{
				{Label: "Yes", Token: dialog.TokenGraphYes},
				{Label: "No", Token: dialog.TokenGraphNo},
			},
		})

	case dialog.EffectPromptGraphCity:
		choices := make([]Choice, len(eff.Legs))
		for i, city := range eff.Legs {
			choices[i] = Choice{Label: city, Token: dialog.CityToken(city)}
		}
		c.send(ctx, OutboundMessage{
			ChannelID: channelID,
			Text:      "Pick the city to chart:",
			Choices:   choices,
		})

	case dialog.EffectPromptGraphMetric:
		c.send(ctx, OutboundMessage{
			ChannelID: channelID,
			Text:      "Choose the chart metric:",
			Choices: []Choice{
				{Label: "Temperature", Token: dialog.TokenMetricTemperature},
				{Label: "Wind", Token: dialog.TokenMetricWind},
				{Label: "Precipitation", Token: dialog.TokenMetricPrecipitation},
			},
		})

	case dialog.EffectDeliverReport:
		c.deliverReport(ctx, sessionID, channelID, eff)

	case dialog.EffectDeliverChart:
		c.deliverChart(ctx, channelID, eff)

	case dialog.EffectEndDialogue:
		fmt.Fprintf(c.out, "gateway: coordinator: dialogue complete [session=%s]\n", sessionID)
	}
}

// deliverReport builds the route report and sends it chunk by chunk, then
// writes the audit row.
func (c *Coordinator) deliverReport(ctx context.Context, sessionID, channelID string, eff dialog.Effect) {
	chunks := c.reporter.BuildReport(ctx, eff.Route, eff.Days)
	for _, chunk := range chunks {
		c.send(ctx, OutboundMessage{ChannelID: channelID, Text: chunk})
	}
	c.auditReport(sessionID, eff, len(chunks))
}

func (c *Coordinator) auditReport(sessionID string, eff dialog.Effect, chunks int) {
	if c.db == nil {
		return
	}
	row := models.ReportDelivery{
		SessionKey: sessionID,
		Cities:     strings.Join(eff.Route.Legs(), ","),
		Days:       eff.Days,
		Chunks:     chunks,
	}
	if err := c.db.Create(&row).Error; err != nil {
		log.Printf("gateway: coordinator: audit report delivery: %v", err)
	}
}

// deliverChart resolves the chosen city, fetches its forecast, builds the
// chart spec, renders it, and uploads the image. Every failure downgrades
// to a user-facing message; the already-delivered text report is unaffected.
func (c *Coordinator) deliverChart(ctx context.Context, channelID string, eff dialog.Effect) {
	key, err := c.resolver.Resolve(ctx, eff.City)
	if err != nil {
		log.Printf("gateway: coordinator: chart resolve %q: %v", eff.City, err)
		c.send(ctx, OutboundMessage{ChannelID: channelID, Text: fmt.Sprintf("could not locate %s", eff.City)})
		return
	}

	forecast, err := c.provider.Forecast(ctx, key, eff.Days)
	if err != nil {
		log.Printf("gateway: coordinator: chart forecast %q: %v", eff.City, err)
		c.send(ctx, OutboundMessage{ChannelID: channelID, Text: fmt.Sprintf("could not fetch forecast for %s", eff.City)})
		return
	}

	spec, err := chart.Build(eff.City, eff.Days, eff.Metric, forecast)
	if err != nil {
		if errors.Is(err, chart.ErrNoData) {
			c.send(ctx, OutboundMessage{ChannelID: channelID, Text: fmt.Sprintf("no data to chart for %s", eff.City)})
			return
		}
		log.Printf("gateway: coordinator: build chart for %q: %v", eff.City, err)
		c.send(ctx, OutboundMessage{ChannelID: channelID, Text: fmt.Sprintf("could not build the %s chart for %s", eff.Metric, eff.City)})
		return
	}

	image, err := c.renderer.Render(ctx, spec)
	if err != nil {
		log.Printf("gateway: coordinator: render chart for %q: %v", eff.City, err)
		c.send(ctx, OutboundMessage{ChannelID: channelID, Text: fmt.Sprintf("could not render the %s chart for %s", eff.Metric, eff.City)})
		return
	}

	c.send(ctx, OutboundMessage{
		ChannelID: channelID,
		Text:      fmt.Sprintf("Weather in %s", eff.City),
		Image:     image,
		ImageName: fmt.Sprintf("%s_%s.png", strings.ToLower(strings.ReplaceAll(eff.City, " ", "_")), eff.Metric),
	})
}

func (c *Coordinator) send(ctx context.Context, msg OutboundMessage) {
	if err := c.adapter.Send(ctx, msg); err != nil {
		log.Printf("gateway: coordinator: send: %v", err)
	}
}
