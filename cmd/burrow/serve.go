package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cuemby/burrow/pkg/log"
	"github.com/cuemby/burrow/pkg/manager"
	"github.com/cuemby/burrow/pkg/metrics"
	"github.com/cuemby/burrow/pkg/storage"
	"github.com/cuemby/burrow/pkg/task"
	"github.com/cuemby/burrow/pkg/types"
)

// serveConfig is the YAML file schema for the serve command.
type serveConfig struct {
	Redis   storage.RedisConfig `yaml:"redis"`
	Manager manager.Config      `yaml:"manager"`
	Metrics struct {
		Listen string `yaml:"listen"`
	} `yaml:"metrics"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a background task server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("config", "", "Path to YAML config file")
	serveCmd.Flags().String("redis-addr", "", "Address of the shared key-value store")
	serveCmd.Flags().String("server-id", "", "Unique id of this server (default: hostname)")
	serveCmd.Flags().String("server-type", string(types.ServerTypeManager), "Server type (manager, agent-controller)")
	serveCmd.Flags().String("metrics-listen", ":9100", "Listen address for the Prometheus endpoint")
	serveCmd.Flags().Duration("recovery-interval", types.DefaultRecoveryInterval, "Sleep between recovery sweeps")
	serveCmd.Flags().Duration("retry-ttl", types.DefaultHeartbeatThreshold, "Staleness threshold before a task is reclaimed")
	serveCmd.Flags().Duration("shutdown-timeout", 30*time.Second, "How long to wait for in-flight tasks on shutdown")

	rootCmd.AddCommand(serveCmd)
}

func loadServeConfig(cmd *cobra.Command) (serveConfig, error) {
	cfg := serveConfig{
		Redis: storage.DefaultRedisConfig(),
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "burrow"
	}
	cfg.Manager = manager.DefaultConfig(types.ServerID(hostname))
	cfg.Metrics.Listen = ":9100"

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Flag overrides
	if addr, _ := cmd.Flags().GetString("redis-addr"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if id, _ := cmd.Flags().GetString("server-id"); id != "" {
		cfg.Manager.ServerID = types.ServerID(id)
	}
	if st, _ := cmd.Flags().GetString("server-type"); cmd.Flags().Changed("server-type") {
		cfg.Manager.ServerType = types.ServerType(st)
	}
	if listen, _ := cmd.Flags().GetString("metrics-listen"); cmd.Flags().Changed("metrics-listen") {
		cfg.Metrics.Listen = listen
	}
	if d, _ := cmd.Flags().GetDuration("recovery-interval"); cmd.Flags().Changed("recovery-interval") {
		cfg.Manager.RecoveryInterval = d
	}
	if d, _ := cmd.Flags().GetDuration("retry-ttl"); cmd.Flags().Changed("retry-ttl") {
		cfg.Manager.RetryTTL = d
	}

	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	initLogging(cmd)

	cfg, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}

	logger := log.WithComponent("serve")
	ctx := cmd.Context()

	store, err := storage.NewRedisStore(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer store.Close()

	metrics.SetVersion(Version)
	metrics.RegisterComponent("storage", true, "")

	mgr := manager.New(cfg.Manager, store)
	mgr.RegisterHandler(&task.CloneVFolderHandler{})
	mgr.RegisterHandler(&task.DeleteVFolderHandler{})
	mgr.RegisterHandler(&task.PushImageHandler{})
	mgr.Start()
	metrics.RegisterComponent("recovery", true, "")

	// Prometheus and health endpoints
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", metrics.HealthHandler())
	mux.HandleFunc("/ready", metrics.ReadyHandler())
	mux.HandleFunc("/live", metrics.LivenessHandler())
	metricsServer := &http.Server{
		Addr:    cfg.Metrics.Listen,
		Handler: mux,
	}
	go func() {
		logger.Info().Str("listen", cfg.Metrics.Listen).Msg("Metrics endpoint listening")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("Metrics endpoint failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("Shutting down")

	timeout, _ := cmd.Flags().GetDuration("shutdown-timeout")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	_ = metricsServer.Shutdown(shutdownCtx)
	if err := mgr.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Some tasks did not finish before the shutdown deadline")
	}
	return nil
}
