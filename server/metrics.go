package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/iov-one/swapkeep/upkeep"
	"github.com/iov-one/swapkeep/x/swap"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the counters of the daemon. It observes escrow events
// and upkeep outcomes besides the HTTP requests.
type Metrics struct {
	registry      *prometheus.Registry
	requestsTotal *prometheus.CounterVec
	eventsTotal   *prometheus.CounterVec
	upkeepTotal   *prometheus.CounterVec
	fungibleHeld  prometheus.Gauge
	uniqueHeld    prometheus.Gauge
}

var _ swap.EventListener = (*Metrics)(nil)

// NewMetrics returns metrics registered in a dedicated registry.
func NewMetrics() *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "swapkeep_http_requests_total",
		Help: "Total number of HTTP requests by route and status",
	}, []string{"route", "status"})

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "swapkeep_events_total",
		Help: "Total number of escrow events by kind",
	}, []string{"kind"})

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "swapkeep_upkeep_total",
		Help: "Upkeep ticks by outcome",
	}, []string{"outcome"})

	fungible := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "swapkeep_fungible_held",
		Help: "1 when the tokens are in custody",
	})

	unique := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "swapkeep_unique_held",
		Help: "1 when the unique asset is in custody",
	})

	r := prometheus.NewRegistry()
	r.MustRegister(requests, events, runs, fungible, unique)

	return &Metrics{
		registry:      r,
		requestsTotal: requests,
		eventsTotal:   events,
		upkeepTotal:   runs,
		fungibleHeld:  fungible,
		uniqueHeld:    unique,
	}
}

// Handler exposes the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// OnEvent counts the event and updates the custody gauges.
func (m *Metrics) OnEvent(ctx context.Context, e swap.Event) {
	m.eventsTotal.WithLabelValues(string(e.Kind)).Inc()
	switch e.Kind {
	case swap.EventDepositReceived:
		m.setHeld(e.Side, 1)
	case swap.EventDepositWithdrawn:
		m.setHeld(e.Side, 0)
	case swap.EventSwapExecuted, swap.EventRoundCancelled:
		m.fungibleHeld.Set(0)
		m.uniqueHeld.Set(0)
	}
}

func (m *Metrics) setHeld(side swap.Side, v float64) {
	switch side {
	case swap.SideFungible:
		m.fungibleHeld.Set(v)
	case swap.SideUnique:
		m.uniqueHeld.Set(v)
	}
}

// ObserveUpkeep counts an upkeep tick. It can be passed to
// upkeep.WithObserver.
func (m *Metrics) ObserveUpkeep(o upkeep.Outcome) {
	m.upkeepTotal.WithLabelValues(string(o)).Inc()
}

func (m *Metrics) incRequest(route string, status int) {
	m.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument counts requests served by h under the given route label.
func (m *Metrics) instrument(route string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r)
		m.incRequest(route, rec.status)
	})
}
