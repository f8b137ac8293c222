package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/hxgui-dev/hxgui/internal/config"
	"github.com/hxgui-dev/hxgui/pkg/bus"
	"github.com/hxgui-dev/hxgui/pkg/eventbus"
	"github.com/hxgui-dev/hxgui/pkg/gui"
	"github.com/hxgui-dev/hxgui/pkg/httpd"
	"github.com/hxgui-dev/hxgui/pkg/pages"
	"github.com/hxgui-dev/hxgui/pkg/renderer"
	"github.com/hxgui-dev/hxgui/pkg/session"
	"github.com/hxgui-dev/hxgui/pkg/status"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		port       int
		busURL     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the rendering gateway",
		Long: `Run the rendering gateway: connect to the OVOS GUI bus, serve
the master document, and stream fragment updates to browsers.

Examples:
  hxgui serve
  hxgui serve --config /etc/hxgui.toml
  hxgui serve --port 8080 --bus ws://ovos.local:18181/gui`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, port, busURL)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "",
		"Path to the TOML configuration file (default hxgui.toml)")
	cmd.Flags().IntVarP(&port, "port", "p", 0,
		"HTTP port (overrides the configuration)")
	cmd.Flags().StringVarP(&busURL, "bus", "b", "",
		"GUI bus websocket URL (overrides the configuration)")

	return cmd
}

func runServe(configPath string, port int, busURL string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.ServerPort = port
	}
	if busURL != "" {
		cfg.OVOSServerURL = busURL
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := httpd.NewMetrics(prometheus.DefaultRegisterer)

	eventBus := eventbus.New(logger,
		eventbus.WithDropCallback(metrics.DroppedSubscribers.Inc))

	rend := renderer.New(eventBus, renderer.Config{
		Title:      "OVOS Display",
		PingPeriod: cfg.PingDuration(),
	}, logger, renderer.WithFrameObserver(func(string) {
		metrics.FramesTotal.Inc()
	}))

	// The navigator closes whatever the built-in pages' back buttons
	// point at; it is late-bound because the coordinator needs the page
	// registry first.
	var coord *gui.Coordinator
	nav := pages.NavigatorFunc(func() {
		if coord != nil {
			coord.Close("", "")
		}
	})
	registry := gui.NewRegistry(pages.NewNotImplemented(nav), logger)
	pages.Register(registry, nav)

	coord = gui.NewCoordinator(registry, rend, logger)
	rend.SetCatalog(coord)

	statusPage, err := coord.InstallStatusPage(pages.StatusBarURI)
	if err != nil {
		return err
	}
	rend.AttachStatusWidget(statusPage.Tree())

	machine := status.New(coord.UpdateStatus, logger)
	machine.Start(ctx)
	rend.Start(ctx)

	sessions := session.NewRegistry(session.Config{
		PingPeriod: cfg.PingDuration(),
		CheckWait:  cfg.CheckWaitDuration(),
	}, func(string) {
		metrics.ActiveSessions.Dec()
	}, logger)
	sessions.Start(ctx)
	defer sessions.Close()

	clock := pages.NewClock()
	clock.Subscribe(func(data map[string]any) {
		coord.UpdateData(bus.HomescreenNamespace, data)
	})
	clock.Start(ctx)

	busCfg := bus.DefaultConfig()
	busCfg.URL = cfg.OVOSServerURL
	if cfg.ClientID != "" {
		busCfg.GUIID = cfg.ClientID
	}
	busClient := bus.New(busCfg, coord, machine, logger,
		bus.WithMessageObserver(func(messageType string) {
			metrics.BusMessagesTotal.WithLabelValues(messageType).Inc()
		}))
	go busClient.Run(ctx)

	server := httpd.New(httpd.Config{
		Host:      cfg.ServerHost,
		Port:      cfg.ServerPort,
		AssetsDir: cfg.AssetsDirectory,
	}, rend, eventBus, sessions, coord, busClient, metrics, logger)

	return server.Run(ctx)
}
