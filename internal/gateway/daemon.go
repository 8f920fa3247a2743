package gateway

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/zulandar/wayfarer/internal/chart"
	"github.com/zulandar/wayfarer/internal/config"
	"github.com/zulandar/wayfarer/internal/dialog"
	"github.com/zulandar/wayfarer/internal/locate"
	"github.com/zulandar/wayfarer/internal/report"
	"github.com/zulandar/wayfarer/internal/weather"
)

// Daemon is the main wayfarer process. It connects to a chat platform via
// an Adapter, pumps inbound messages through the Router, and sweeps stale
// dialogue sessions on a cron schedule.
type Daemon struct {
	cfg      *config.Config
	adapter  Adapter
	resolver locate.Resolver
	provider weather.Provider
	renderer chart.Renderer
	store    *dialog.Store
	db       *gorm.DB
	out      io.Writer
}

// DaemonOpts holds parameters for creating a new Daemon.
type DaemonOpts struct {
	Config   *config.Config
	Adapter  Adapter
	Resolver locate.Resolver
	Provider weather.Provider
	Renderer chart.Renderer
	Store    *dialog.Store // optional; defaults to a fresh store
	DB       *gorm.DB      // optional; enables report delivery audit rows
	Out      io.Writer     // defaults to os.Stdout
}

// NewDaemon creates a Daemon with the given options.
func NewDaemon(opts DaemonOpts) (*Daemon, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("gateway: config is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("gateway: adapter is required")
	}
	if opts.Resolver == nil {
		return nil, fmt.Errorf("gateway: resolver is required")
	}
	if opts.Provider == nil {
		return nil, fmt.Errorf("gateway: provider is required")
	}
	if opts.Renderer == nil {
		return nil, fmt.Errorf("gateway: renderer is required")
	}
	store := opts.Store
	if store == nil {
		store = dialog.NewStore()
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Daemon{
		cfg:      opts.Config,
		adapter:  opts.Adapter,
		resolver: opts.Resolver,
		provider: opts.Provider,
		renderer: opts.Renderer,
		store:    store,
		db:       opts.DB,
		out:      out,
	}, nil
}

// Store exposes the session store for dashboard snapshots.
func (d *Daemon) Store() *dialog.Store {
	return d.store
}

// Run starts the wayfarer daemon. It connects the adapter, builds the
// Coordinator and Router, and blocks until the context is cancelled. On
// shutdown it closes the adapter gracefully.
func (d *Daemon) Run(ctx context.Context) error {
	fmt.Fprintf(d.out, "Wayfarer connecting...\n")
	if err := d.adapter.Connect(ctx); err != nil {
		return fmt.Errorf("gateway: connect: %w", err)
	}

	// Extract bot user ID if the adapter supports it.
	var botUserID string
	if bui, ok := d.adapter.(BotUserIDer); ok {
		botUserID = bui.BotUserID()
	}

	reporter, err := report.NewAggregator(report.AggregatorOpts{
		Resolver: d.resolver,
		Provider: d.provider,
	})
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("gateway: build aggregator: %w", err)
	}

	coordinator, err := NewCoordinator(CoordinatorOpts{
		Adapter:  d.adapter,
		Reporter: reporter,
		Resolver: d.resolver,
		Provider: d.provider,
		Renderer: d.renderer,
		Store:    d.store,
		DB:       d.db,
		Out:      d.out,
	})
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("gateway: build coordinator: %w", err)
	}

	router, err := NewRouter(RouterOpts{
		Coordinator: coordinator,
		Adapter:     d.adapter,
		BotUserID:   botUserID,
		Out:         d.out,
	})
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("gateway: build router: %w", err)
	}

	inbound, err := d.adapter.Listen(ctx)
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("gateway: listen: %w", err)
	}

	go d.runSessionSweeper(ctx)

	fmt.Fprintf(d.out, "Wayfarer online\n")

	// Main event loop: pump inbound messages until context is cancelled.
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(d.out, "Wayfarer shutting down...\n")
			if err := d.adapter.Close(); err != nil {
				log.Printf("gateway: close adapter: %v", err)
			}
			fmt.Fprintf(d.out, "Wayfarer stopped\n")
			return nil

		case msg, ok := <-inbound:
			if !ok {
				// Adapter closed the channel.
				fmt.Fprintf(d.out, "Wayfarer inbound channel closed\n")
				return nil
			}
			router.Handle(ctx, msg)
		}
	}
}

// runSessionSweeper evicts stale dialogue sessions on the configured cron
// schedule. Abandoned dialogues never receive further events, so the sweep
// is the only thing that reclaims them.
func (d *Daemon) runSessionSweeper(ctx context.Context) {
	ttl := time.Duration(d.cfg.Session.TTLMinutes) * time.Minute
	expr := d.cfg.Session.SweepCron
	if ttl <= 0 || expr == "" {
		return
	}

	next := nextCronDuration(expr)
	if next <= 0 {
		log.Printf("gateway: session sweeper: bad cron expression %q", expr)
		return
	}
	timer := time.NewTimer(next)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if n := d.store.Evict(ttl); n > 0 {
				fmt.Fprintf(d.out, "gateway: evicted %d stale session(s)\n", n)
			}
			if next := nextCronDuration(expr); next > 0 {
				timer.Reset(next)
			}
		}
	}
}
