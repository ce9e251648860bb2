// Command schedule-generator expands the scheduling rules over the next
// BOOKING_GENERATE_AHEAD_DAYS days and exits. It is meant to run from cron.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/prohmpiriya/gym-booking/internal/di"
	"github.com/prohmpiriya/gym-booking/internal/dto"
	"github.com/prohmpiriya/gym-booking/pkg/config"
	"github.com/prohmpiriya/gym-booking/pkg/logger"
	"go.uber.org/zap"
)

const serviceName = "schedule-generator"

func main() {
	days := flag.Int("days", 0, "number of days to generate, starting today (default BOOKING_GENERATE_AHEAD_DAYS)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	shutdown, err := di.InitObservability(ctx, cfg, serviceName)
	if err != nil {
		log.Fatalf("Failed to initialize observability: %v", err)
	}
	defer shutdown()
	appLog := logger.Get()

	db, err := di.OpenPostgres(ctx, cfg, serviceName)
	if err != nil {
		appLog.Fatal("Database connection failed", zap.Error(err))
	}
	defer db.Close()

	container := di.NewContainer(&di.ContainerConfig{Config: cfg, DB: db})

	ahead := *days
	if ahead <= 0 {
		ahead = cfg.Booking.GenerateAheadDays
	}
	if ahead <= 0 {
		ahead = 1
	}

	today := time.Now().In(cfg.Location())
	req := &dto.GenerateSchedulesRequest{
		From: today.Format(time.DateOnly),
		To:   today.AddDate(0, 0, ahead-1).Format(time.DateOnly),
	}

	resp, err := container.ScheduleService.Generate(ctx, req)
	if err != nil {
		appLog.Fatal("Schedule generation failed",
			zap.String("from", req.From),
			zap.String("to", req.To),
			zap.Error(err),
		)
	}

	appLog.Info("Schedules generated",
		zap.String("from", resp.From),
		zap.String("to", resp.To),
		zap.Int("generated", resp.Generated),
		zap.Int("skipped", resp.Skipped),
	)
}
