package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/daemonp/dsc2mqtt/internal/bridge"
	"github.com/daemonp/dsc2mqtt/internal/cache"
	"github.com/daemonp/dsc2mqtt/internal/config"
	"github.com/daemonp/dsc2mqtt/internal/dsc"
	"github.com/daemonp/dsc2mqtt/internal/homeassistant"
	"github.com/daemonp/dsc2mqtt/internal/httpapi"
	"github.com/daemonp/dsc2mqtt/internal/log"
	"github.com/daemonp/dsc2mqtt/internal/mqtt"
	"github.com/daemonp/dsc2mqtt/internal/things"
	"github.com/daemonp/dsc2mqtt/internal/transport"
	"github.com/daemonp/dsc2mqtt/internal/types"
)

var configFile = "config.yml"

func runCommand() *cobra.Command {
	cmd := cobra.Command{
		Use:   "run",
		Short: "Run the bridge",
		Args:  cobra.NoArgs,
		RunE:  run,
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", configFile, "Path to configuration file")
	return &cmd
}

func run(_ *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := log.NewLogger(log.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})

	dialect, err := dsc.ParseDialect(cfg.DSC.Dialect)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The MQTT client needs the session as its commander and the registry
	// needs the client as its publisher, so the session is bound late.
	commander := &lateCommander{}
	mqttClient := mqtt.NewMQTT(&cfg.MQTT, commander, logger.With("mqtt"))

	registry := things.NewRegistry(mqttClient, logger.With("things"))

	var store things.Store
	var cacheStore *cache.Cache
	if cfg.Cache.Enabled {
		cacheStore, err = cache.New(cfg.Cache.Path)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		data, err := cacheStore.Load()
		if err != nil {
			logger.Warning("Failed to load cache: %v", err)
		}
		registry.Restore(data)
		store = cacheStore
	}
	configureThings(cfg, registry)

	var announcer things.Announcer
	if cfg.HomeAssistant.Discovery {
		announcer = homeassistant.New(&cfg.HomeAssistant, mqttClient, logger.With("homeassistant"))
	}
	discovery := things.NewDiscovery(registry, announcer, store, logger.With("discovery"))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := bridge.NewMetrics(reg)

	var port bridge.ConnectionPort
	if cfg.DSC.UsesSerial() {
		port = transport.NewSerial(cfg.DSC.SerialPort, cfg.DSC.BaudRate, logger.With("serial"))
	} else {
		port = transport.NewTCP(cfg.DSC.Host, cfg.DSC.Port, logger.With("tcp"))
	}

	session := bridge.NewSession(port, registry, discovery, bridge.Options{
		Dialect: dialect,
		Credentials: dsc.Credentials{
			Password: cfg.DSC.Password,
			UserCode: cfg.DSC.UserCode,
		},
		PollPeriod:               cfg.DSC.PollPeriod,
		PollInterval:             cfg.DSC.PollInterval,
		ConnectTimeout:           cfg.DSC.ConnectTimeout,
		SuppressAcknowledgements: cfg.DSC.SuppressAcknowledgements,
		Listener:                 registry,
		Metrics:                  metrics,
		Logger:                   logger.With("bridge"),
	})
	commander.bind(session)

	mqttClient.OnConnect(func() {
		discovery.AnnounceAll()
		for _, thing := range registry.Things() {
			mqttClient.PublishState(thing.Identity(), thing.State())
		}
	})

	if err := mqttClient.Connect(); err != nil {
		return fmt.Errorf("connecting to MQTT broker: %w", err)
	}
	defer mqttClient.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return session.Run(ctx) })

	if cfg.HTTP.Listen != "" {
		srv := &http.Server{
			Addr:              cfg.HTTP.Listen,
			Handler:           httpapi.NewRouter(session, registry, reg, logger.With("http")),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info("HTTP API listening on %s", cfg.HTTP.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdown)
		})
	}

	logger.Info("dsc2mqtt started (%s)", dialect)
	err = g.Wait()
	logger.Info("Shutting down...")

	if cacheStore != nil {
		discovery.Persist()
		logger.Info("Saved cache to %s", cacheStore.Path())
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// configureThings registers the panel, keypad and every partition and zone
// named in the config.
func configureThings(cfg *config.Config, registry *things.Registry) {
	registry.Add(types.PanelIdentity())
	registry.Add(types.KeypadIdentity())
	for _, p := range cfg.Partitions {
		registry.Configure(types.PartitionIdentity(p.Number), p.Name, "")
	}
	for _, z := range cfg.Zones {
		registry.Configure(types.ZoneIdentity(z.Partition, z.Number), z.Name, z.DeviceClass)
	}
}

// lateCommander forwards to the session once it exists.
type lateCommander struct {
	session *bridge.Session
}

func (c *lateCommander) bind(s *bridge.Session) {
	c.session = s
}

func (c *lateCommander) SendCommand(code dsc.Code, args ...string) error {
	if c.session == nil {
		return bridge.ErrNotConnected
	}
	return c.session.SendCommand(code, args...)
}

func (c *lateCommander) Reset(ctx context.Context, on bool) error {
	if c.session == nil {
		return bridge.ErrNotConnected
	}
	return c.session.Reset(ctx, on)
}

func (c *lateCommander) SyncTime() error {
	if c.session == nil {
		return bridge.ErrNotConnected
	}
	return c.session.SyncTime()
}

func (c *lateCommander) Dialect() dsc.Dialect {
	if c.session == nil {
		return dsc.EnvisalinkTPI
	}
	return c.session.Dialect()
}

var _ mqtt.Commander = (*lateCommander)(nil)
