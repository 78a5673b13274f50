// Command porter-agent signs in as a porter and reports a simulated GPS
// route to the DropNGo API until interrupted.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dropngo/internal/config"
	"dropngo/internal/domain"
	"dropngo/internal/logger"
	"dropngo/internal/tracking"
)

func main() {
	cfg := config.LoadAgent()
	log := logger.New("porter-agent", cfg.LoggerLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	points, err := tracking.ParseWaypoints(cfg.Route)
	if err != nil {
		log.Error("invalid route", logger.Error(err))
		os.Exit(1)
	}
	route, err := tracking.NewSimulatedRoute(points, cfg.SpeedMps)
	if err != nil {
		log.Error("invalid route", logger.Error(err))
		os.Exit(1)
	}

	reporter := tracking.NewHTTPReporter(cfg.APIBaseURL)

	loginCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	role, err := reporter.Login(loginCtx, cfg.Email, cfg.Password)
	cancel()
	if err != nil {
		log.Error("login failed", logger.String("email", cfg.Email), logger.Error(err))
		os.Exit(1)
	}
	if domain.Role(role) != domain.RolePorter {
		log.Error("account is not a porter", logger.String("role", role))
		os.Exit(1)
	}
	log.Info("signed in", logger.String("email", cfg.Email), logger.Int("waypoints", len(points)))

	tracker := tracking.NewTracker(route, reporter, tracking.Config{
		Interval:     cfg.Tracking.Interval,
		MinDistanceM: cfg.Tracking.MinDistanceM,
		Heartbeat:    cfg.Tracking.Heartbeat,
	}, log)

	tracker.Run(ctx)
	log.Info("porter-agent exited")
}
