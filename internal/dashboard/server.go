// Package dashboard serves a small JSON status API for operating Wayfarer:
// health, live dialogue sessions, cache size, and recent report deliveries.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/wayfarer/internal/dialog"
	"github.com/zulandar/wayfarer/internal/models"
	"gorm.io/gorm"
)

// StartOpts holds configuration for the dashboard server.
type StartOpts struct {
	DB    *gorm.DB
	Store *dialog.Store
	Port  int
	Out   io.Writer
}

// Start launches the dashboard HTTP server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("dashboard: db is required")
	}
	if opts.Store == nil {
		return fmt.Errorf("dashboard: session store is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8090
	}

	gin.SetMode(gin.ReleaseMode)
	router := newRouter(opts.DB, opts.Store)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Dashboard running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// newRouter builds the gin engine with all dashboard routes registered.
func newRouter(gdb *gorm.DB, store *dialog.Store) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", handleHealth(gdb))
	router.GET("/api/sessions", handleSessions(store))
	router.GET("/api/locations", handleLocations(gdb))
	router.GET("/api/reports", handleReports(gdb))

	return router
}

func handleHealth(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if sqlDB, err := gdb.DB(); err != nil || sqlDB.Ping() != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status": status,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func handleSessions(store *dialog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		infos := store.Snapshot()
		sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
		c.JSON(http.StatusOK, gin.H{
			"count":    len(infos),
			"sessions": infos,
		})
	}
}

func handleLocations(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var count int64
		if err := gdb.Model(&models.CachedLocation{}).Count(&count).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		var recent []models.CachedLocation
		gdb.Order("updated_at DESC").Limit(20).Find(&recent)

		cities := make([]string, len(recent))
		for i, loc := range recent {
			cities[i] = loc.City
		}
		c.JSON(http.StatusOK, gin.H{
			"count":  count,
			"recent": cities,
		})
	}
}

// reportRow is the JSON shape for one delivered report.
type reportRow struct {
	SessionKey string    `json:"session_key"`
	Cities     string    `json:"cities"`
	Days       int       `json:"days"`
	Chunks     int       `json:"chunks"`
	CreatedAt  time.Time `json:"created_at"`
}

func handleReports(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var deliveries []models.ReportDelivery
		if err := gdb.Order("created_at DESC").Limit(50).Find(&deliveries).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		rows := make([]reportRow, len(deliveries))
		for i, d := range deliveries {
			rows[i] = reportRow{
				SessionKey: d.SessionKey,
				Cities:     d.Cities,
				Days:       d.Days,
				Chunks:     d.Chunks,
				CreatedAt:  d.CreatedAt,
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"count":   len(rows),
			"reports": rows,
		})
	}
}
