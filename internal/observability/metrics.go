package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalsfoundry/orrery-simulator/internal/logging"
)

// SimCollector bundles Prometheus metrics for the simulation loop. It
// satisfies core.SceneMetrics.
type SimCollector struct {
	gatherer prometheus.Gatherer

	Ticks              prometheus.Counter
	TickFailures       prometheus.Counter
	TickDuration       prometheus.Histogram
	Bodies             prometheus.Gauge
	TimeAmplifier      prometheus.Gauge
	RateRecalculations prometheus.Counter
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

	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_ticks_total",
		Help: "Total number of committed simulation ticks.",
	}), "orrery_ticks_total")
	if err != nil {
		return nil, err
	}
	failures, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_tick_failures_total",
		Help: "Total number of ticks aborted without committing.",
	}), "orrery_tick_failures_total")
	if err != nil {
		return nil, err
	}
	duration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orrery_tick_duration_seconds",
		Help:    "Wall-clock time spent computing one tick.",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.016, 0.05, 0.1},
	}), "orrery_tick_duration_seconds")
	if err != nil {
		return nil, err
	}
	bodies, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_bodies",
		Help: "Current number of bodies in the scene.",
	}), "orrery_bodies")
	if err != nil {
		return nil, err
	}
	amplifier, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_time_amplifier",
		Help: "Simulated milliseconds per real millisecond.",
	}), "orrery_time_amplifier")
	if err != nil {
		return nil, err
	}
	recalcs, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_rate_recalculations_total",
		Help: "Total number of whole-tree rate recalculations after a time scale change.",
	}), "orrery_rate_recalculations_total")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:           gatherer,
		Ticks:              ticks,
		TickFailures:       failures,
		TickDuration:       duration,
		Bodies:             bodies,
		TimeAmplifier:      amplifier,
		RateRecalculations: recalcs,
	}, nil
}

// ObserveTick records one tick attempt.
func (c *SimCollector) ObserveTick(d time.Duration, err error) {
	if c == nil {
		return
	}
	c.TickDuration.Observe(d.Seconds())
	if err != nil {
		c.TickFailures.Inc()
		return
	}
	c.Ticks.Inc()
}

// SetBodyCount sets the body gauge.
func (c *SimCollector) SetBodyCount(n int) {
	if c == nil {
		return
	}
	c.Bodies.Set(float64(n))
}

// SetTimeAmplifier sets the amplifier gauge.
func (c *SimCollector) SetTimeAmplifier(amplifier float64) {
	if c == nil {
		return
	}
	c.TimeAmplifier.Set(amplifier)
}

// IncRateRecalculations counts a time scale change.
func (c *SimCollector) IncRateRecalculations() {
	if c == nil {
		return
	}
	c.RateRecalculations.Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ServeMetrics serves h under /metrics on addr until ctx is done.
func ServeMetrics(ctx context.Context, addr string, h http.Handler, log logging.Logger) error {
	if log == nil {
		log = logging.Noop()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Info(ctx, "metrics endpoint listening", logging.String("addr", addr))

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
