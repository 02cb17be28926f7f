package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"

	"github.com/duneview/booking-assistant/internal/api/router"
	"github.com/duneview/booking-assistant/internal/availability"
	"github.com/duneview/booking-assistant/internal/calendar"
	appconfig "github.com/duneview/booking-assistant/internal/config"
	"github.com/duneview/booking-assistant/internal/conversation"
	"github.com/duneview/booking-assistant/internal/http/handlers"
	"github.com/duneview/booking-assistant/internal/observability/metrics"
	"github.com/duneview/booking-assistant/internal/pricing"
	"github.com/duneview/booking-assistant/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking-assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	pricingMetrics := metrics.NewPricingMetrics(nil)
	conversationMetrics := metrics.NewConversationMetrics(nil)

	calendarStore := calendar.NewStore(logger)

	oracle := pricing.NewClient(cfg.PricingBaseURL,
		pricing.WithAPIKey(cfg.PricingAPIKey),
		pricing.WithHTTPClient(&http.Client{Timeout: cfg.PricingTimeout}),
		pricing.WithCacheTTL(cfg.PriceCacheTTL),
		pricing.WithMetrics(pricingMetrics),
		pricing.WithLogger(logger),
	)

	engine := availability.New(calendarStore, oracle,
		availability.WithMaxConcurrency(cfg.PricingMaxConcurrency),
		availability.WithPerCallTimeout(cfg.PricingTimeout),
		availability.WithHorizonDays(cfg.SearchHorizonDays),
		availability.WithLogger(logger),
	)

	states := newStateStore(cfg, logger)
	classifier := newClassifier(cfg, logger)

	machine := conversation.NewMachine(states, engine, classifier,
		conversation.WithNarrowingThreshold(cfg.NarrowingThreshold),
		conversation.WithMonthCandidateCap(cfg.MonthCandidateCap),
		conversation.WithConversationMetrics(conversationMetrics),
		conversation.WithMachineLogger(logger),
	)

	r := router.New(&router.Config{
		Logger:              logger,
		CalendarHandler:     handlers.NewCalendarHandler(calendarStore, logger),
		AvailabilityHandler: handlers.NewAvailabilityHandler(engine, logger),
		NarrowHandler:       handlers.NewNarrowHandler(),
		ChatHandler:         handlers.NewChatHandler(machine, logger),
		MetricsHandler:      promhttp.Handler(),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	refreshCtx, stopRefresher := context.WithCancel(context.Background())
	defer stopRefresher()
	if cfg.CalendarFeedURL != "" {
		go runFeedRefresher(refreshCtx, calendarStore, cfg.CalendarFeedURL, cfg.CalendarRefreshInterval, logger)
	} else {
		logger.Warn("CALENDAR_FEED_URL not set; calendar starts empty until POST /calendar/refresh")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")
	stopRefresher()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func newStateStore(cfg *appconfig.Config, logger *logging.Logger) conversation.StateStore {
	if cfg.RedisAddr == "" {
		logger.Info("using in-memory conversation state", "session_ttl", cfg.SessionTTL)
		return conversation.NewMemoryStateStore(cfg.SessionTTL)
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Error("redis unreachable, falling back to in-memory conversation state", "error", err)
		return conversation.NewMemoryStateStore(cfg.SessionTTL)
	}

	logger.Info("using redis conversation state", "addr", cfg.RedisAddr, "session_ttl", cfg.SessionTTL)
	return conversation.NewRedisStateStore(client, cfg.SessionTTL)
}

func newClassifier(cfg *appconfig.Config, logger *logging.Logger) conversation.Classifier {
	if cfg.OpenAIAPIKey == "" {
		logger.Info("OPENAI_API_KEY not set; using heuristic intent classification")
		return conversation.NewHeuristicClassifier()
	}
	logger.Info("using openai intent classification", "model", cfg.OpenAIModel)
	return conversation.NewOpenAIClassifier(openai.NewClient(cfg.OpenAIAPIKey), cfg.OpenAIModel, logger)
}

// runFeedRefresher polls the calendar feed and swaps the snapshot. Fetch
// and parse failures keep the last good snapshot; queries never observe a
// partial refresh.
func runFeedRefresher(ctx context.Context, store *calendar.Store, feedURL string, interval time.Duration, logger *logging.Logger) {
	if interval <= 0 {
		interval = 30 * time.Minute
	}

	refresh := func() {
		feed, err := fetchFeed(ctx, feedURL)
		if err != nil {
			logger.Warn("calendar feed fetch failed, keeping last snapshot", "url", feedURL, "error", err)
			return
		}
		stats := store.RefreshBestEffort(feed)
		logger.Info("calendar feed refreshed",
			"intervals", stats.Intervals,
			"skipped", stats.Skipped,
		)
	}

	refresh()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}

func fetchFeed(ctx context.Context, feedURL string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, feedURL, nil)
	if err != nil {
		return "", fmt.Errorf("build feed request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch feed: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read feed body: %w", err)
	}
	return string(body), nil
}
