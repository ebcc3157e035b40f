package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	flag "github.com/spf13/pflag"

	"github.com/trustfabric/leakguard/internal/server"
	"github.com/trustfabric/leakguard/pkg/config"
	"github.com/trustfabric/leakguard/pkg/dlp"
	"github.com/trustfabric/leakguard/pkg/dlp/audit"
	"github.com/trustfabric/leakguard/pkg/dlp/detectors"
	"github.com/trustfabric/leakguard/pkg/dlp/registry"
	"github.com/trustfabric/leakguard/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("leakguard", logger.ParseLogLevel(cfg.Log.Level), os.Stdout)

	var exitCode int
	switch args[0] {
	case "serve":
		exitCode = runServe(cfg, log)
	case "scan":
		exitCode = runScan(cfg, log, args[1:])
	case "stats":
		exitCode = runStats(cfg, log, args[1:])
	default:
		usage()
		exitCode = 2
	}
	os.Exit(exitCode)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: leakguard [--config file] <command>

commands:
  serve                       run the HTTP server
  scan <tenant> <file.json>   scan a JSON payload and print the verdict
  stats <tenant>              print the tenant's 30-day leakage statistics`)
}

// buildService wires collaborators according to config: Redis-backed hash
// registry and Postgres audit store when enabled, in-process defaults
// otherwise.
func buildService(cfg *config.Config, log *logger.Logger) (*dlp.Service, func(), error) {
	deps := dlp.Dependencies{}
	cleanup := func() {}

	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		deps.HashRegistry = registry.NewRedisRegistry(client, "")
		cleanup = func() { client.Close() }
	}

	if cfg.Database.Enabled {
		store, err := audit.Open(cfg.Database.DSN, log)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		deps.AuditLog = store

		retention := time.Duration(cfg.Database.RetentionDays) * 24 * time.Hour
		sweeper, err := store.StartRetentionSweeper(retention)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		prev := cleanup
		cleanup = func() {
			sweeper.Stop()
			prev()
		}
	}

	serviceCfg := &dlp.ServiceConfig{
		Entropy: &detectors.EntropyConfig{
			MinLength:       cfg.Scanner.EntropyMinLength,
			HighThreshold:   cfg.Scanner.EntropyHighThreshold,
			MediumThreshold: cfg.Scanner.EntropyMediumThreshold,
		},
		Statistical: &detectors.StatisticalConfig{
			LongStringLength:   cfg.Scanner.LongStringLength,
			DiversityRatio:     cfg.Scanner.DiversityRatio,
			DiversityMinLength: cfg.Scanner.DiversityMinLength,
		},
		PIIScoreThreshold: cfg.Scanner.PIIScoreThreshold,
	}

	return dlp.NewService(deps, serviceCfg, log), cleanup, nil
}

func runServe(cfg *config.Config, log *logger.Logger) int {
	service, cleanup, err := buildService(cfg, log)
	if err != nil {
		log.Error("failed to build service: %v", err)
		return 1
	}
	defer cleanup()

	srv := server.New(service, &cfg.Server, log)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server failed: %v", err)
			return 1
		}
	case sig := <-sigCh:
		log.Info("received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("shutdown failed: %v", err)
			return 1
		}
	}
	return 0
}

func runScan(cfg *config.Config, log *logger.Logger, args []string) int {
	if len(args) != 2 {
		usage()
		return 2
	}
	tenantID, path := args[0], args[1]

	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading payload: %v\n", err)
		return 1
	}
	var payload interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		fmt.Fprintf(os.Stderr, "parsing payload: %v\n", err)
		return 1
	}

	service, cleanup, err := buildService(cfg, log)
	if err != nil {
		log.Error("failed to build service: %v", err)
		return 1
	}
	defer cleanup()

	result, err := service.ScanForLeakage(context.Background(), payload, tenantID, "cli", "cli_scan")
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan failed: %v\n", err)
		return 1
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))

	if result.HasLeakage {
		return 3
	}
	return 0
}

func runStats(cfg *config.Config, log *logger.Logger, args []string) int {
	if len(args) != 1 {
		usage()
		return 2
	}

	service, cleanup, err := buildService(cfg, log)
	if err != nil {
		log.Error("failed to build service: %v", err)
		return 1
	}
	defer cleanup()

	stats, err := service.GetLeakageStatistics(context.Background(), args[0], time.Time{}, time.Time{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "statistics failed: %v\n", err)
		return 1
	}

	out, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Println(string(out))
	return 0
}
