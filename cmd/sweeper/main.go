// cmd/sweeper/main.go
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voice-sweeper/internal/config"
	"voice-sweeper/internal/discord"
	"voice-sweeper/internal/status"
	"voice-sweeper/internal/storage"
	"voice-sweeper/internal/sweep"
	"voice-sweeper/internal/telemetry"
	"voice-sweeper/pkg/jobmgr"
)

const sweepJob = "voice-sweep"

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup happens before exit.
func run() int {
	log.Println("[INFO] Starting voice sweeper...")

	cfg, err := config.New()
	if err != nil {
		var missing *config.MissingError
		if errors.As(err, &missing) {
			log.Printf("[ERR] Missing required environment variables: %v", missing.Names)
		} else {
			log.Printf("[ERR] Invalid configuration: %v", err)
		}
		return 1
	}

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		log.Printf("[ERR] Failed to open storage: %v", err)
		return 1
	}
	defer store.Close()

	bot, err := discord.New(cfg, store)
	if err != nil {
		log.Printf("[ERR] %v", err)
		return 1
	}

	target := sweep.Target{GuildID: cfg.GuildID, ChannelID: cfg.ChannelID, LogChannelID: cfg.LogChannelID}
	sweeper := sweep.New(bot.Platform(), target, sweep.Options{
		SkipBots: cfg.SkipBots,
		Warning: sweep.Warning{
			ChannelID: cfg.WarningChannelID,
			Delay:     cfg.WarningDelay,
			Only:      cfg.WarningOnly,
		},
		Recorder: telemetry.Init(),
		ClientID: bot.ClientID,
		OnReport: func(r *sweep.Report) {
			if err := store.AppendSweepReport(target.GuildID, *r); err != nil {
				log.Printf("[WARN] Failed to store sweep report: %v", err)
			}
		},
	})

	jobs := jobmgr.NewManager(func(msg string) {
		log.Println("[INFO] [Jobs]", msg)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 2)
	if cfg.StatusAddr != "" {
		srv := status.New(cfg.StatusAddr, sweeper, store)
		go func() {
			if err := srv.Run(ctx); err != nil {
				errCh <- err
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		err := bot.Run(ctx, sweeper, discord.Lifecycle{
			OnReady: func(ctx context.Context) {
				startSchedule(jobs, sweeper, cfg.SweepInterval)
			},
			OnShutdown: func(ctx context.Context) {
				stopCtx, stop := context.WithTimeout(ctx, 10*time.Second)
				defer stop()
				if err := jobs.StopAll(stopCtx); err != nil {
					log.Printf("[WARN] Jobs did not stop in time: %v", err)
				}
			},
		})
		if err != nil {
			errCh <- err
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	code := 0
	select {
	case s := <-sig:
		log.Printf("[INFO] Received signal %s, shutting down...", s)
	case err := <-errCh:
		log.Println("[ERR] Fatal error:", err)
		code = 1
	}
	cancel()
	<-done

	if err := store.Flush(); err != nil {
		log.Printf("[WARN] Failed to flush storage: %v", err)
	}
	log.Println("[INFO] Voice sweeper exited")
	return code
}

// startSchedule starts the recurring sweep. READY fires again after a
// reconnect, when the job is already running.
func startSchedule(jobs *jobmgr.Manager, sweeper *sweep.Sweeper, interval time.Duration) {
	err := jobs.StartRecurring(sweepJob, jobmgr.Schedule{Interval: interval, Align: true},
		func(ctx context.Context, tick time.Time) {
			sweeper.TryRun(ctx, sweep.TriggerSchedule) //nolint:errcheck
		})
	switch {
	case err == nil:
		log.Printf("[INFO] Voice sweep scheduled every %v", interval)
	case errors.Is(err, jobmgr.ErrJobRunning):
	default:
		log.Printf("[ERR] Failed to schedule voice sweep: %v", err)
	}
}
