package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/vstore/internal/config"
	"github.com/vango-dev/vstore/internal/errors"
	"github.com/vango-dev/vstore/internal/workspace"
	"github.com/vango-dev/vstore/pkg/devtools"
	"github.com/vango-dev/vstore/pkg/middleware"
	"github.com/vango-dev/vstore/pkg/store"
)

type serveOptions struct {
	host     string
	port     int
	seed     string
	watch    bool
	simulate time.Duration
}

func serveCmd(flags *globalFlags) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the workspace store with devtools and metrics",
		Long: `Serve creates the workspace store, loads its seed and exposes it through
the devtools bridge and a Prometheus endpoint.

Every write is labelled with its action name, counted, logged at debug
level and, with tracing enabled, recorded as a span.

Examples:
  vstore serve
  vstore serve --port=9000 --seed=workspace.yaml --watch
  vstore serve --simulate=500ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			opts.apply(cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, cmd, cfg, opts.simulate)
		},
	}

	cmd.Flags().StringVarP(&opts.host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVar(&opts.seed, "seed", "", "Workspace seed file (.json, .toml or .yaml)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Reload the seed when it changes")
	cmd.Flags().DurationVar(&opts.simulate, "simulate", 0, "Perform a simulated user action at this interval")

	return cmd
}

// apply overrides cfg with the flags that were set.
func (o serveOptions) apply(cfg *config.Config) {
	if o.host != "" {
		cfg.Devtools.Host = o.host
	}
	if o.port > 0 {
		cfg.Devtools.Port = o.port
	}
	if o.seed != "" {
		cfg.Workspace.Seed = o.seed
	}
	if o.watch {
		cfg.Workspace.Watch = true
	}
}

// server holds everything "vstore serve" runs.
type server struct {
	cfg      *config.Config
	logger   *slog.Logger
	bridge   *devtools.Bridge
	store    *store.Store[workspace.State]
	registry *prometheus.Registry
	handler  http.Handler
}

// newServer builds the store, its middleware chain and the HTTP routes.
func newServer(cfg *config.Config, logger *slog.Logger, tp trace.TracerProvider) (*server, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metricsOpts := []middleware.MetricsOption{
		middleware.WithNamespace(cfg.Metrics.Namespace),
		middleware.WithRegistry(registry),
	}

	bridge := devtools.NewBridge(
		devtools.WithLogger(logger),
		devtools.WithAllowedOrigins(cfg.Devtools.AllowOrigins...),
	)

	mws := []store.Middleware[workspace.State]{
		devtools.Middleware[workspace.State](bridge),
		middleware.Logging[workspace.State](logger, slog.LevelDebug),
	}
	if cfg.Metrics.Enabled {
		mws = append(mws, middleware.Prometheus[workspace.State](metricsOpts...))
	}
	if cfg.Tracing.Enabled {
		mws = append(mws, middleware.OpenTelemetry[workspace.State](middleware.WithTracerProvider(tp)))
	}

	storeOpts := []store.Option{store.WithName(cfg.Name), store.WithLogger(logger)}
	if cfg.Metrics.Enabled {
		storeOpts = append(storeOpts, store.WithListenerRecovery(middleware.ListenerPanicHandler(metricsOpts...)))
	}

	ws := workspace.NewStore(workspace.Options{
		Middleware:   mws,
		StoreOptions: storeOpts,
	})

	seed := workspace.DemoSeed()
	if path := cfg.SeedPath(); path != "" {
		loaded, err := workspace.LoadSeed(path)
		if err != nil {
			return nil, err
		}
		seed = loaded
	}
	ws.GetState().Load(seed)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Mount(cfg.Devtools.Path, bridge.Routes())
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	}

	return &server{
		cfg:      cfg,
		logger:   logger,
		bridge:   bridge,
		store:    ws,
		registry: registry,
		handler:  r,
	}, nil
}

// run serves until ctx is done. The seed watcher and simulator run
// alongside the HTTP server and stop with it.
func (s *server) run(ctx context.Context, ln net.Listener, simulate time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		if err := httpServer.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.New("D001").Wrap(err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.bridge.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if path := s.cfg.SeedPath(); path != "" && s.cfg.Workspace.Watch {
		watcher := workspace.NewWatcher(workspace.WatcherConfig{
			Path:     path,
			Debounce: s.cfg.DebounceDuration(),
			Logger:   s.logger,
		})
		watcher.OnChange(func(seed workspace.Seed) {
			s.store.GetState().Load(seed)
		})
		g.Go(func() error {
			if err := watcher.Start(ctx); err != nil && !stderrors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if simulate > 0 {
		sim := &workspace.Simulator{Store: s.store, Interval: simulate, Logger: s.logger}
		g.Go(func() error {
			if err := sim.Run(ctx); err != nil && !stderrors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}

func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config, simulate time.Duration) error {
	log := logger(cfg, cmd.ErrOrStderr())

	tp, shutdownTracing, err := setupTracing(cfg, cmd.ErrOrStderr())
	if err != nil {
		return errors.New("D001").Wrap(err)
	}
	defer shutdownTracing(context.Background())

	srv, err := newServer(cfg, log, tp)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.DevtoolsAddress())
	if err != nil {
		return errors.New("D001").Wrap(err).
			WithSuggestion(fmt.Sprintf("Choose another port with --port or free %s", cfg.DevtoolsAddress()))
	}

	out := cmd.OutOrStdout()
	success(out, "Serving store %q", cfg.Name)
	info(out, "Devtools  %s", cfg.DevtoolsURL())
	info(out, "Stream    %s", cfg.StreamURL())
	if cfg.Metrics.Enabled {
		info(out, "Metrics   http://%s%s", cfg.DevtoolsAddress(), cfg.Metrics.Path)
	}
	if seed := cfg.SeedPath(); seed != "" {
		info(out, "Seed      %s", seed)
	}

	return srv.run(ctx, ln, simulate)
}
