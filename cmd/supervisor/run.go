// cmd/supervisor/run.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tamzrod/ulp-supervisor/internal/config"
	"github.com/tamzrod/ulp-supervisor/internal/httpapi"
	"github.com/tamzrod/ulp-supervisor/internal/supervisor"
)

func newRunCmd() *cobra.Command {
	var (
		cfgPath  string
		simulate bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the coprocessor and supervise it until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// --------------------
			// Load + validate config
			// --------------------

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if simulate {
				cfg.Supervisor.Coprocessor.Simulate = true
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("config validation failed: %w", err)
			}
			config.Normalize(cfg)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (YAML)")
	cmd.Flags().BoolVar(&simulate, "simulate", false, "loop simulator output back instead of opening the serial device")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := log.WithField("unit", cfg.Supervisor.Coprocessor.ID)

	// --------------------
	// Build + start (synchronous)
	// --------------------

	rt, err := supervisor.Build(cfg, logger)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	defer rt.Close()

	if err := rt.Supervisor.Start(); err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}

	// --------------------
	// Runtime tasks
	// --------------------

	var wg sync.WaitGroup

	if rt.MQTT != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = rt.MQTT.Run(ctx)
		}()
	}

	if hc := cfg.Supervisor.HTTP; hc != nil {
		srv := &http.Server{
			Addr: hc.Listen,
			Handler: httpapi.NewRouter(rt.Supervisor, rt.Ring, httpapi.Version{
				Version:   buildVersion,
				BuildDate: buildDate,
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}

		wg.Add(2)
		go func() {
			defer wg.Done()
			logger.WithField("listen", hc.Listen).Info("http listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Error("http server stopped")
			}
		}()
		go func() {
			defer wg.Done()
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	logger.Info("supervisor running")
	err = rt.Supervisor.Run(ctx)
	wg.Wait()
	logger.Info("supervisor stopped")
	return err
}
