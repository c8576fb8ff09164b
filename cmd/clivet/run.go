// cmd/clivet/run.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/tamzrod/clivet-modbus/internal/config"
	"github.com/tamzrod/clivet-modbus/internal/exporter"
	"github.com/tamzrod/clivet-modbus/internal/heatpump"
	"github.com/tamzrod/clivet-modbus/internal/poller"
	"github.com/tamzrod/clivet-modbus/internal/status"
	"github.com/tamzrod/clivet-modbus/internal/writer"
)

var runCmd = &cobra.Command{
	Use:   "run [config.yaml]",
	Short: "Poll the device and publish until interrupted",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if len(args) == 1 {
			path = args[0]
		}

		cfg, err := loadConfig(path)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runDaemon(ctx, cfg)
	},
}

func runDaemon(ctx context.Context, cfg *config.Config) error {
	// --------------------
	// Poller + metrics
	// --------------------

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	p, err := poller.Build(cfg, logger, poller.WithMetrics(poller.NewMetrics(reg)))
	if err != nil {
		return err
	}
	log := logger.With().Str("device", p.UniqueID()).Logger()

	fields := append(heatpump.Catalogue(), config.CustomFields(cfg)...)
	reg.MustRegister(exporter.NewCollector(p.UniqueID(), fields, p))

	if cfg.Metrics.Listen != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info().Str("listen", srv.Addr).Msg("metrics listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}()
		defer srv.Close()
	}

	// --------------------
	// MQTT (optional)
	// --------------------

	var (
		stateWriter  writer.Writer
		statusWriter writer.StatusWriter
	)

	if cfg.MQTT.Broker != "" {
		topics := writer.BuildTopics(cfg.MQTT, p.UniqueID())

		broker, err := writer.BuildBroker(cfg.MQTT, topics, log)
		if err != nil {
			return err
		}
		defer broker.Close()

		stateWriter = writer.New(broker, topics, fields, p)
		statusWriter = writer.NewStatusWriter(broker, topics, func() string { return heatpump.ModelName(p) })

		// a command waits for the worker, then for one write and one read
		cmdr := writer.NewCommander(p, fields, log, cfg.Poll.Interval()+2*cfg.Device.Timeout())
		if err := cmdr.Listen(broker, topics); err != nil {
			return err
		}
	}

	// --------------------
	// Channel between poller and publishers
	// --------------------

	updates := make(chan poller.Update, 16)
	unsubscribe := p.Subscribe(func(u poller.Update) {
		select {
		case updates <- u:
		default:
			log.Warn().Str("update", u.Kind.String()).Msg("publisher behind, update dropped")
		}
	})
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	// Orchestrator (runner-owned state + 1Hz seconds ticker)
	tracker := status.NewTracker()

	writeStatus := func() {
		if statusWriter == nil {
			return
		}
		if err := statusWriter.WriteStatus(tracker.Snapshot()); err != nil {
			log.Error().Err(err).Msg("status write failed")
		}
	}

	// Full re-assert on start.
	writeStatus()

	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			<-done
			log.Info().Msg("stopped")
			return nil

		case u := <-updates:
			// --- data delivery ---
			if stateWriter != nil {
				if err := stateWriter.Write(u); err != nil {
					log.Error().Err(err).Msg("state publish failed")
				}
			}

			// --- status update (device-level truth) ---
			if u.Kind != poller.UpdateCycle {
				continue
			}
			if tracker.Observe(u.Err, u.At) {
				writeStatus()
			}

		case <-secTicker.C:
			// Tick 1 Hz while not OK.
			if tracker.Tick() {
				writeStatus()
			}
		}
	}
}
