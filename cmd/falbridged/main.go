package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"falbridge/internal/config"
	"falbridge/internal/credentials"
	"falbridge/internal/falclient"
	"falbridge/internal/httpapi"
	"falbridge/internal/imaging"
	"falbridge/internal/jobs"
	"falbridge/internal/nodes"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		addr       string
		configPath string
		logLevel   string
	)
	root := &cobra.Command{
		Use:           "falbridged",
		Short:         "Bridge daemon between a node-graph host and the fal.ai API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(addr, configPath, logLevel)
		},
	}
	root.Flags().StringVar(&addr, "addr", envOr("FALBRIDGE_ADDR", ""), "HTTP listen address, e.g. :8080 (overrides config)")
	root.Flags().StringVar(&configPath, "config", envOr("FALBRIDGE_CONFIG", ""), "Path to config file (.ini/.toml/.yaml/.json)")
	root.Flags().StringVar(&logLevel, "log-level", envOr("FALBRIDGE_LOG_LEVEL", "info"), "Log level: debug|info|warn|error")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version and exit",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	})
	return root
}

func run(addr, configPath, logLevel string) error {
	lvl, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()

	var cfg config.Config
	if configPath != "" {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	if addr == "" {
		addr = cfg.Addr
	}
	if addr == "" {
		addr = ":8080"
	}

	var opts []falclient.Option
	if cfg.API.QueueURL != "" {
		opts = append(opts, falclient.WithQueueURL(cfg.API.QueueURL))
	}
	if cfg.API.RestURL != "" {
		opts = append(opts, falclient.WithRestURL(cfg.API.RestURL))
	}
	if cfg.API.PollIntervalMS > 0 {
		opts = append(opts, falclient.WithPollInterval(time.Duration(cfg.API.PollIntervalMS)*time.Millisecond))
	}

	store := credentials.NewStore(cfg.API.FalKey, logger, opts...)
	marshaller := imaging.NewMarshaller(store, logger)
	decoder := imaging.NewDecoder(logger, nil)
	runner := jobs.NewRunner(store, logger)
	hub := httpapi.NewEventHub(logger)
	reg := nodes.Builtins(nodes.Deps{
		Store:      store,
		Marshaller: marshaller,
		Decoder:    decoder,
		Runner:     runner,
		Events:     hub,
	})

	httpapi.SetLogger(logger)
	srv := &http.Server{Addr: addr, Handler: httpapi.NewMux(store, reg, hub)}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Str("version", version).Msg("falbridged listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
