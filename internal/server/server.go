package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/tartampluch/go-eventtracker/internal/config"
	"github.com/tartampluch/go-eventtracker/internal/engine"
	"github.com/tartampluch/go-eventtracker/internal/locale"
	"github.com/tartampluch/go-eventtracker/internal/tracker"
)

// Server exposes the calendar feed and the JSON API on localhost.
type Server struct {
	Port string

	// RefreshSpec is a standard 5-field cron expression. Empty disables the scheduler.
	RefreshSpec string

	tracker   *tracker.Service
	generator *engine.Generator
	localizer *locale.Localizer

	// locales holds one localizer per embedded language, built once in New
	// and read-only afterwards.
	locales map[string]*locale.Localizer

	// cache uses atomic.Pointer for lock-free reads.
	// The feed is read often by calendar clients but only rebuilt on
	// mutations and on schedule.
	cache atomic.Pointer[cacheItem]
}

// New creates a server and hooks it to svc so that every mutation rebuilds the feed.
func New(port string, svc *tracker.Service, gen *engine.Generator, loc *locale.Localizer) *Server {
	s := &Server{
		Port:        port,
		RefreshSpec: config.DefaultRefreshCron,
		tracker:     svc,
		generator:   gen,
		localizer:   loc,
		locales:     make(map[string]*locale.Localizer),
	}
	s.locales[loc.Language()] = loc
	for _, lang := range loc.Languages() {
		if _, ok := s.locales[lang]; !ok {
			s.locales[lang] = locale.New(lang)
		}
	}
	svc.OnChange = func() {
		if err := s.Refresh(context.Background()); err != nil {
			slog.Error(config.ErrFeedRender,
				config.LogKeyComponent, config.CompServer,
				config.LogKeyError, err)
		}
	}
	return s
}

// ValidateSchedule checks a refresh cron expression.
func ValidateSchedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("%s: %w", config.ErrCronSpec, err)
	}
	return nil
}

// Refresh renders the feed from the current events and publishes it.
func (s *Server) Refresh(ctx context.Context) error {
	events, err := s.tracker.Events(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrFeedRender, err)
	}
	data, _, err := s.generator.Render(events)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrFeedRender, err)
	}
	s.Update(data)
	return nil
}

// Start renders the feed once, starts the scheduler and serves HTTP until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.Port == "" {
		return errors.New(config.ErrPortRequired)
	}

	if err := s.Refresh(ctx); err != nil {
		// Keep serving: the calendar handler answers 503 until a refresh succeeds.
		slog.Error(config.ErrFeedRender,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err)
	}

	if s.RefreshSpec != "" {
		sched := cron.New()
		if _, err := sched.AddFunc(s.RefreshSpec, func() {
			slog.Debug(config.MsgFeedRefresh, config.LogKeyComponent, config.CompWorker)
			if err := s.Refresh(ctx); err != nil {
				slog.Error(config.ErrFeedRender,
					config.LogKeyComponent, config.CompWorker,
					config.LogKeyError, err)
			}
		}); err != nil {
			return fmt.Errorf("%s: %w", config.ErrCronSpec, err)
		}
		sched.Start()
		defer sched.Stop()
		slog.Info(config.MsgSchedulerUp,
			config.LogKeyComponent, config.CompWorker,
			config.LogKeyCron, s.RefreshSpec)
	}

	srv := &http.Server{
		Addr:         config.LocalhostBindAddr + config.AddrSeparator + s.Port,
		Handler:      s.Router(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyPort, s.Port,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// Router builds the gin engine with every route.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET(config.RouteHealth, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{config.JSONKeyStatus: config.HTTPStatusOK})
	})
	r.Any(config.RouteCalendar, s.handleCalendarRequest)

	r.GET(config.RouteEvents, s.listEvents)
	r.POST(config.RouteEvents, s.createEvent)
	r.DELETE(config.RouteEvents, s.deleteAllEvents)
	r.PUT(config.RouteEventID, s.updateEvent)
	r.DELETE(config.RouteEventID, s.deleteEvent)

	r.GET(config.RouteExport, s.exportEvents)
	r.POST(config.RouteImport, s.importEvents)
	r.GET(config.RouteWidget, s.widgetView)

	return r
}

// requestLogger logs every request at debug level through slog.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug(c.Request.URL.Path,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyMethod, c.Request.Method,
			config.LogKeyStatus, c.Writer.Status(),
			config.LogKeyDuration, time.Since(start).Milliseconds(),
		)
	}
}
