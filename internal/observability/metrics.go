package observability

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// SimCollector bundles Prometheus metrics for a running simulation session
// and provides helpers to wire them into gRPC servers and HTTP handlers.
type SimCollector struct {
	gatherer prometheus.Gatherer

	Ticks        prometheus.Counter
	TickDuration prometheus.Histogram
	TimeScale    prometheus.Gauge
	Elapsed      prometheus.Gauge
	Distance     prometheus.Gauge

	Events           *prometheus.CounterVec
	PhaseTransitions *prometheus.CounterVec
	Commands         *prometheus.CounterVec

	RPCRequests  *prometheus.CounterVec
	RPCDurations *prometheus.HistogramVec
}

// NewSimCollector registers simulation metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_ticks_total",
		Help: "Total number of simulation frames produced.",
	}), "sim_ticks_total")
	if err != nil {
		return nil, err
	}

	tickDuration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_tick_duration_seconds",
		Help:    "Wall-clock time spent computing one frame.",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	}), "sim_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	timeScale, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_time_scale",
		Help: "Current simulation time scale; 0 while paused.",
	}), "sim_time_scale")
	if err != nil {
		return nil, err
	}
	elapsed, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_elapsed_seconds",
		Help: "Simulated seconds elapsed in the session.",
	}), "sim_elapsed_seconds")
	if err != nil {
		return nil, err
	}
	distance, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_asteroid_distance_scene_units",
		Help: "Distance between the asteroid and Earth in scene units.",
	}), "sim_asteroid_distance_scene_units")
	if err != nil {
		return nil, err
	}

	events, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_events_total",
		Help: "One-shot simulation events, labeled by event type.",
	}, []string{"event"}), "sim_events_total")
	if err != nil {
		return nil, err
	}
	transitions, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_phase_transitions_total",
		Help: "Mission vehicle phase transitions, labeled by vehicle and new phase.",
	}, []string{"vehicle", "phase"}), "sim_phase_transitions_total")
	if err != nil {
		return nil, err
	}
	commands, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_commands_total",
		Help: "Session commands, labeled by command and result.",
	}, []string{"command", "result"}), "sim_commands_total")
	if err != nil {
		return nil, err
	}

	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_rpc_requests_total",
		Help: "Total number of handled RPCs, labeled by service, method, and gRPC status code.",
	}, []string{"service", "method", "code"}), "sim_rpc_requests_total")
	if err != nil {
		return nil, err
	}
	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sim_rpc_request_duration_seconds",
		Help:    "RPC latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"service", "method"}), "sim_rpc_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:         gatherer,
		Ticks:            ticks,
		TickDuration:     tickDuration,
		TimeScale:        timeScale,
		Elapsed:          elapsed,
		Distance:         distance,
		Events:           events,
		PhaseTransitions: transitions,
		Commands:         commands,
		RPCRequests:      requests,
		RPCDurations:     durations,
	}, nil
}

// RecordTick updates the per-frame series.
func (c *SimCollector) RecordTick(d time.Duration, timeScale, elapsed, distance float64) {
	if c == nil {
		return
	}
	c.Ticks.Inc()
	c.TickDuration.Observe(d.Seconds())
	c.TimeScale.Set(timeScale)
	c.Elapsed.Set(elapsed)
	c.Distance.Set(distance)
}

// RecordEvent counts a one-shot event.
func (c *SimCollector) RecordEvent(event string) {
	if c == nil {
		return
	}
	c.Events.WithLabelValues(event).Inc()
}

// RecordPhaseTransition counts a vehicle entering phase.
func (c *SimCollector) RecordPhaseTransition(vehicle, phase string) {
	if c == nil {
		return
	}
	c.PhaseTransitions.WithLabelValues(vehicle, phase).Inc()
}

// RecordCommand counts a session command and its result ("ok" or an
// error class).
func (c *SimCollector) RecordCommand(command, result string) {
	if c == nil {
		return
	}
	c.Commands.WithLabelValues(command, result).Inc()
}

// UnaryServerInterceptor records request counts and durations for unary RPCs.
func (c *SimCollector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		if c == nil {
			return resp, err
		}

		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		service, method := SplitMethod(fullMethod)
		c.RPCRequests.WithLabelValues(service, method, status.Code(err).String()).Inc()
		c.RPCDurations.WithLabelValues(service, method).Observe(time.Since(start).Seconds())
		return resp, err
	}
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SimCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	return handlerFor(c.Gatherer())
}

func handlerFor(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SplitMethod parses a fully-qualified gRPC method name into service and method
// components. It tolerates empty strings and partial paths, returning
// "unknown"/"unknown" when parsing fails.
func SplitMethod(fullMethod string) (string, string) {
	if fullMethod == "" {
		return "unknown", "unknown"
	}
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 2 {
		return "unknown", "unknown"
	}
	service := parts[len(parts)-2]
	method := parts[len(parts)-1]
	if dot := strings.LastIndex(service, "."); dot >= 0 && dot+1 < len(service) {
		service = service[dot+1:]
	}
	if service == "" {
		service = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	return service, method
}
