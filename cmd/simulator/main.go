package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/signalsfoundry/asteroid-defense/catalog"
	"github.com/signalsfoundry/asteroid-defense/core"
	"github.com/signalsfoundry/asteroid-defense/internal/config"
	"github.com/signalsfoundry/asteroid-defense/internal/logging"
	"github.com/signalsfoundry/asteroid-defense/internal/observability"
	"github.com/signalsfoundry/asteroid-defense/internal/session"
	"github.com/signalsfoundry/asteroid-defense/model"
	"github.com/signalsfoundry/asteroid-defense/timectrl"
)

// healthService is the name the session reports under on the health server.
const healthService = "asteroid.Session"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "simulator: %v\n", err)
		os.Exit(1)
	}
}

// script is an optional scripted mission launched once simulated time
// reaches launchAt.
type script struct {
	measure     string
	tractorMass float64
	launchAt    float64
	launched    bool
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("simulator", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to a YAML/JSON config file")
	handoffPath := fs.String("handoff", "", "Path to an asteroid handoff file written by neo-catalog")
	bodyTable := fs.String("body-table", "", "Path to a JSON body table replacing the built-in solar system")
	seed := fs.Uint64("seed", 0, "Seed for planet phases and crash sites")
	mode := fs.String("mode", "", "Frame loop mode: realtime or accelerated")
	tick := fs.Duration("tick", 0, "Frame interval")
	duration := fs.Duration("duration", 0, "Total run time; 0 runs until interrupted or an outcome is shown")
	outcomeDelay := fs.Duration("outcome-delay", 0, "Real time between a mission outcome and its end screen")
	skipStory := fs.Bool("skip-story", false, "Start with the introduction finished")
	metricsAddr := fs.String("metrics-addr", "", "HTTP address for Prometheus /metrics")
	healthAddr := fs.String("health-addr", "", "TCP address for the gRPC health server")
	measure := fs.String("measure", "", "Launch a mission: tractor, missile or starship")
	tractorMass := fs.Float64("tractor-mass", core.DefaultTractorMassKg, "Gravity tractor mass in kg")
	launchAt := fs.Float64("launch-at", 0, "Simulated seconds before the scripted mission launches")
	logEvery := fs.Int("log-every", 60, "Log a frame summary every N frames; 0 disables")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["handoff"] {
		cfg.Session.Handoff = *handoffPath
	}
	if set["body-table"] {
		cfg.Session.BodyTable = *bodyTable
	}
	if set["seed"] {
		cfg.Session.Seed = *seed
	}
	if set["mode"] {
		cfg.Loop.Mode = *mode
	}
	if set["tick"] {
		cfg.Loop.Tick = *tick
	}
	if set["duration"] {
		cfg.Loop.Duration = *duration
	}
	if set["outcome-delay"] {
		cfg.Session.OutcomeDelay = *outcomeDelay
	}
	if set["skip-story"] {
		cfg.Session.SkipStory = *skipStory
	}
	if set["metrics-addr"] {
		cfg.Server.MetricsAddr = *metricsAddr
	}
	if set["health-addr"] {
		cfg.Server.HealthAddr = *healthAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var plan *script
	if *measure != "" {
		if _, err := model.ParseVehicleType(*measure); err != nil {
			return err
		}
		plan = &script{measure: *measure, tractorMass: *tractorMass, launchAt: *launchAt}
	}

	log := logging.NewWithWriter(stdout, cfg.Logging())

	shutdownTracing, err := observability.InitTracing(ctx, cfg.TracingSettings(), log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewSimCollector(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	sel := loadSelection(ctx, log, cfg.Session.Handoff)
	engineOpts := []core.EngineOption{}
	if start, _ := cfg.StartTime(); !start.IsZero() {
		engineOpts = append(engineOpts, core.WithStartDate(start))
	}
	if cfg.Session.BodyTable != "" {
		system, err := loadBodyTable(cfg.Session.BodyTable)
		if err != nil {
			return err
		}
		engineOpts = append(engineOpts, core.WithSolarSystem(system))
	}
	engine := core.NewEngine(sel.Spec, cfg.Session.Seed, engineOpts...)

	sessOpts := []session.Option{
		session.WithLogger(log),
		session.WithMetricsRecorder(collector),
		session.WithOutcomeDelay(cfg.Session.OutcomeDelay),
	}
	if cfg.Session.SkipStory || plan != nil {
		sessOpts = append(sessOpts, session.WithSkipStory())
	}
	sess := session.New(engine, sel, sessOpts...)
	log = log.With(logging.String("session_id", sess.ID()))

	metricsSrv := serveMetrics(cfg.Server.MetricsAddr, collector, log)
	var healthSrv *grpc.Server
	if cfg.Server.HealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.HealthAddr)
		if err != nil {
			return fmt.Errorf("listen for health server on %s: %w", cfg.Server.HealthAddr, err)
		}
		healthSrv = serveHealth(lis, collector, log)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var frames int
	var outcome string
	loop := timectrl.NewFrameLoop(cfg.Loop.Tick, parseMode(cfg.Loop.Mode))
	loop.AddListener(func(realDelta float64) {
		f := sess.Tick(realDelta)
		frames++

		if plan != nil && !plan.launched && f.Elapsed >= plan.launchAt {
			plan.launched = true
			launch(runCtx, log, sess, plan)
		}
		for _, ev := range f.Events {
			logEvent(runCtx, log, f, ev)
		}
		if *logEvery > 0 && frames%*logEvery == 0 {
			log.Debug(runCtx, "frame",
				logging.Int("frame", frames),
				logging.String("date", f.DisplayDate),
				logging.Float64("time_scale", f.TimeScale),
				logging.Float64("distance_km", f.Asteroid.DistanceKm),
				logging.String("view", f.View.String()),
			)
		}
		switch {
		case f.HasEvent(core.EventEndScreen):
			outcome = f.EndScreen
			cancel()
		case f.HasEvent(core.EventImminentCrash) && f.CrashWarning:
			// Headless runs keep an active mission going; without one the
			// crash warning is the outcome.
			if f.Vehicle == nil {
				outcome = "imminent crash"
				cancel()
				return
			}
			if err := sess.TogglePause(runCtx); err != nil {
				log.Warn(runCtx, "resume after crash warning failed", logging.Err(err))
			}
		}
	})

	log.Info(ctx, "starting simulation",
		logging.String("mode", parseMode(cfg.Loop.Mode).String()),
		logging.Any("tick", cfg.Loop.Tick),
		logging.Any("duration", cfg.Loop.Duration),
		logging.Any("seed", cfg.Session.Seed),
	)
	loop.Run(runCtx, cfg.Loop.Duration)

	status := sess.Status()
	log.Info(ctx, "simulation complete",
		logging.Int("frames", frames),
		logging.String("outcome", outcome),
		logging.Float64("elapsed", engine.Clock().Elapsed()),
		logging.String("asteroid_state", engine.Asteroid().State.String()),
		logging.Bool("crash_warning", status.CrashWarning),
	)

	if healthSrv != nil {
		healthSrv.GracefulStop()
	}
	if metricsSrv != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return nil
}

func parseMode(s string) timectrl.Mode {
	if strings.EqualFold(s, "accelerated") {
		return timectrl.Accelerated
	}
	return timectrl.RealTime
}

func launch(ctx context.Context, log logging.Logger, sess *session.Session, plan *script) {
	vt, _ := model.ParseVehicleType(plan.measure)
	var err error
	if vt == model.VehicleTractor {
		_, err = sess.LaunchTractor(ctx, plan.tractorMass)
	} else {
		_, err = sess.SelectMeasure(ctx, vt)
	}
	if err != nil {
		log.Warn(ctx, "scripted launch failed", logging.String("measure", plan.measure), logging.Err(err))
	}
}

func logEvent(ctx context.Context, log logging.Logger, f session.Frame, ev core.Event) {
	fields := []logging.Field{
		logging.String("event", ev.Type.String()),
		logging.String("date", f.DisplayDate),
	}
	switch ev.Type {
	case core.EventImminentCrash:
		if f.Crash != nil {
			fields = append(fields,
				logging.Any("energy_megatons", f.Crash.Consequences.EnergyMegatons),
				logging.Any("blast_km", f.Crash.Consequences.BlastKm),
			)
		}
	case core.EventEndScreen:
		fields = append(fields, logging.String("message", ev.Message))
	case core.EventPhaseChanged, core.EventMissionLaunched, core.EventMissionEnded:
		return
	}
	log.Info(ctx, "simulation event", fields...)
}

// loadSelection reads the handoff file. Any failure falls back to the
// default asteroid so the session still starts.
func loadSelection(ctx context.Context, log logging.Logger, path string) catalog.Selection {
	if path == "" {
		return catalog.ParseHandoff(catalog.DefaultHandoff())
	}
	f, err := os.Open(path)
	if err != nil {
		log.Warn(ctx, "handoff unreadable; using default asteroid", logging.String("path", path), logging.Err(err))
		return catalog.ParseHandoff(catalog.DefaultHandoff())
	}
	defer f.Close()

	sel, err := catalog.LoadHandoff(f)
	if err != nil {
		log.Warn(ctx, "handoff rejected; using default asteroid", logging.String("path", path), logging.Err(err))
	}
	return sel
}

func loadBodyTable(path string) (*core.SolarSystem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open body table %q: %w", path, err)
	}
	defer f.Close()
	return core.LoadBodyTable(f)
}

func serveMetrics(addr string, collector *observability.SimCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

func serveHealth(lis net.Listener, collector *observability.SimCollector, log logging.Logger) *grpc.Server {
	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			observability.RequestIDUnaryServerInterceptor(log),
			collector.UnaryServerInterceptor(),
		),
	)
	hs := health.NewServer()
	hs.SetServingStatus(healthService, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, hs)

	go func() {
		if err := server.Serve(lis); err != nil {
			log.Error(context.Background(), "health server exited", logging.Err(err))
		}
	}()
	log.Info(context.Background(), "serving gRPC health", logging.String("addr", lis.Addr().String()))
	return server
}
