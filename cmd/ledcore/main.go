package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/edgeflow/ledcore/internal/cluster"
	"github.com/edgeflow/ledcore/internal/config"
	"github.com/edgeflow/ledcore/internal/hal"
	"github.com/edgeflow/ledcore/internal/health"
	"github.com/edgeflow/ledcore/internal/logger"
	"github.com/edgeflow/ledcore/internal/maintenance"
	"github.com/edgeflow/ledcore/internal/metrics"
	"github.com/edgeflow/ledcore/internal/pattern"
	"github.com/edgeflow/ledcore/internal/renderloop"
	"github.com/edgeflow/ledcore/internal/resources"
	"github.com/edgeflow/ledcore/internal/sink"
	"github.com/edgeflow/ledcore/internal/status"
	"github.com/edgeflow/ledcore/internal/storage"
	"github.com/edgeflow/ledcore/internal/timesync"
	"github.com/edgeflow/ledcore/internal/websocket"
)

var Version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	ledCount := flag.Int("led_count", 0, "override the configured LED count (0 = use config)")
	ledPixelOrder := flag.String("led_pixel_order", "", "override the configured pixel order (RGB, GRB, RGBW, GRBW)")
	targetFPS := flag.Float64("target_fps", 0, "override the configured target frame rate (0 = use config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ledcore: load config: %v\n", err)
		os.Exit(1)
	}
	if *ledCount > 0 {
		cfg.LedCount = *ledCount
	}
	if *ledPixelOrder != "" {
		cfg.LedPixelOrder = *ledPixelOrder
	}
	if *targetFPS > 0 {
		cfg.TargetFPS = *targetFPS
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		LogDir:     cfg.Logger.File,
		MaxSizeMB:  cfg.Logger.MaxSizeMB,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAgeDays: cfg.Logger.MaxAgeDays,
		Compress:   true,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "ledcore: init logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.Get()
	defer logger.Sync()

	log.Info("ledcore starting", zap.String("version", Version), zap.Int("led_count", cfg.LedCount))

	initHAL()

	store, err := storage.New(cfg.Database.Path)
	if err != nil {
		log.Fatal("open pattern store", zap.Error(err))
	}
	defer store.Close()

	registry := pattern.NewRegistry()

	sinks, err := buildSinks(cfg)
	if err != nil {
		log.Error("open sink hardware", zap.Error(err))
		os.Exit(2)
	}

	clock := timesync.NewClock(timesyncMode(cfg.TimeSync))
	m := metrics.NewMetrics()

	loop := renderloop.NewLoop(cfg, registry, store, m, clock, sinks)

	monitor := resources.NewMonitor(resources.ResourceLimits{})
	for name := range cfg.Groups {
		monitor.EnableGroup(name)
	}

	hc := health.NewHealthChecker()
	hc.RegisterCheck("pattern_store", health.DatabaseHealthCheck(func(ctx context.Context) error {
		_, err := store.ListPatterns()
		return err
	}), 30*time.Second)
	hc.RegisterCheck("goroutines", health.GoroutineHealthCheck(runtime.NumGoroutine, 10000), time.Minute)
	hc.RegisterCheck("hal", health.HardwareHealthCheck(hal.GetGlobalHAL), 30*time.Second)
	ctx, cancelHealth := context.WithCancel(context.Background())
	defer cancelHealth()
	hc.StartPeriodicChecks(ctx)

	hub := websocket.NewHub()
	go hub.Run()
	logger.SetBroadcaster(func(level, message, source string, fields map[string]interface{}) {
		data := map[string]interface{}{"level": level, "message": message, "source": source}
		for k, v := range fields {
			data[k] = v
		}
		hub.Broadcast(websocket.MessageTypeLog, data)
	})

	var clusterPub *cluster.Publisher
	if cfg.Cluster.RedisAddr != "" {
		clusterPub, err = cluster.NewPublisher(cluster.Config{
			Addr:    cfg.Cluster.RedisAddr,
			Channel: cfg.Cluster.Channel,
			NodeID:  hostNodeID(),
		})
		if err != nil {
			log.Warn("cluster publisher disabled", zap.Error(err))
		} else {
			defer clusterPub.Close()
		}
	}

	runner := maintenance.NewRunner(log)
	if err := runner.AddTask("pattern-store-flush", 30*time.Second, func() error {
		return nil
	}); err != nil {
		log.Warn("schedule pattern-store-flush", zap.Error(err))
	}
	if clusterPub != nil {
		if err := runner.AddTask("cluster-status-publish", 30*time.Second, func() error {
			snap := m.Snapshot()
			ticks, _ := snap["ticks_total"].(int64)
			overruns, _ := snap["overruns_total"].(int64)
			return clusterPub.Publish(context.Background(), cluster.Status{
				Timestamp:     time.Now(),
				TicksTotal:    ticks,
				OverrunsTotal: overruns,
				TimeSyncRole:  timeSyncRoleName(clock.Mode()),
			})
		}); err != nil {
			log.Warn("schedule cluster-status-publish", zap.Error(err))
		}
	}
	runner.Start()
	defer runner.Stop()

	srv := status.New(m, hc, monitor, hub)
	go func() {
		if err := srv.Listen(cfg.Server.StatusAddr); err != nil {
			log.Error("status server stopped", zap.Error(err))
		}
	}()
	defer srv.Shutdown()

	stopSinks := make(chan struct{})
	loop.StartSinkWorkers(stopSinks)

	var stopArtnet chan struct{}
	if cfg.ArtNet.Enabled {
		stopArtnet = make(chan struct{})
		if err := loop.StartArtnet(stopArtnet); err != nil {
			log.Warn("artnet receiver disabled", zap.Error(err))
		}
	}

	var stopTimesync chan struct{}
	switch clock.Mode() {
	case timesync.ModeMaster:
		stopTimesync = make(chan struct{})
		go func() {
			if err := clock.RunMaster(time.Duration(cfg.TimeSync.SyncInterval*float64(time.Second)), stopTimesync); err != nil {
				log.Warn("timesync master stopped", zap.Error(err))
			}
		}()
	case timesync.ModeSlave:
		stopTimesync = make(chan struct{})
		go func() {
			if err := clock.RunSlave(stopTimesync); err != nil {
				log.Warn("timesync slave stopped", zap.Error(err))
			}
		}()
	}

	reloadStop := make(chan struct{})
	if *configPath != "" {
		if err := config.Watch(*configPath, loop.ApplyConfig, reloadStop); err != nil {
			log.Warn("config watch disabled", zap.Error(err))
		}
	}

	stopRun := make(chan struct{})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	runErr := make(chan error, 1)
	go func() { runErr <- loop.Run(stopRun) }()

	select {
	case <-sig:
		log.Info("shutdown signal received")
	case err := <-runErr:
		if err != nil {
			log.Error("render loop exited", zap.Error(err))
		}
	}

	close(reloadStop)
	close(stopRun)
	if stopArtnet != nil {
		close(stopArtnet)
	}
	if stopTimesync != nil {
		close(stopTimesync)
	}
	close(stopSinks)

	log.Info("ledcore stopped")
}

func buildSinks(cfg *config.Config) (map[string]sink.Sink, error) {
	sinks := make(map[string]sink.Sink, len(cfg.Sinks))
	for name, sc := range cfg.Sinks {
		s, err := buildSink(sc)
		if err != nil {
			return nil, fmt.Errorf("sink %q: %w", name, err)
		}
		sinks[name] = s
	}
	return sinks, nil
}

func buildSink(sc config.SinkConfig) (sink.Sink, error) {
	switch sc.Type {
	case "", "local":
		h, err := hal.GetGlobalHAL()
		if err != nil {
			return nil, fmt.Errorf("local sink requires HAL: %w", err)
		}
		return sink.NewLocalDriver(h, sc.SPIBus, sc.SPIDevice, sc.SPISpeedHz), nil
	case "serial":
		return sink.NewSerialSink(sc.SerialPort, sc.SerialBaud), nil
	case "udp":
		return sink.NewUdpSink(sc.UdpAddr, sc.UdpMTU)
	case "mqtt":
		return sink.NewMqttSink(sc.MqttBroker, sc.MqttClientID, sc.MqttTopic, sc.MqttQoS), nil
	default:
		return nil, fmt.Errorf("unknown sink type %q", sc.Type)
	}
}

func timesyncMode(cfg config.TimeSyncConfig) timesync.Mode {
	if !cfg.Enabled {
		return timesync.ModeOff
	}
	if cfg.MasterMode {
		return timesync.ModeMaster
	}
	return timesync.ModeSlave
}

func hostNodeID() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "ledcore"
	}
	return h
}

func timeSyncRoleName(mode timesync.Mode) string {
	switch mode {
	case timesync.ModeMaster:
		return "master"
	case timesync.ModeSlave:
		return "slave"
	default:
		return "off"
	}
}
