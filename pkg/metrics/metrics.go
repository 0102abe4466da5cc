package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "waterheater"

const (
	ResultApplied      = "applied"
	ResultAppliedToday = "applied_today"
	ResultUnchanged    = "unchanged"
	ResultNoPrices     = "no_prices"
	ResultFailed       = "failed"
)

var (
	Runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconcile_runs_total",
		Help:      "Reconcile runs by outcome",
	}, []string{"result"})

	PriceSource = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "price_source_selected_total",
		Help:      "Times a price source was used",
	}, []string{"source"})

	ScheduleWrites = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "schedule_writes_total",
		Help:      "Weekly schedules written to the device",
	})

	ModeCorrections = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mode_corrections_total",
		Help:      "Times the device modes had to be corrected",
	})

	LastFullSchedule = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_full_schedule_timestamp_seconds",
		Help:      "When a schedule for today and tomorrow was last confirmed on the device",
	})
)

func init() {
	prometheus.MustRegister(Runs, PriceSource, ScheduleWrites, ModeCorrections, LastFullSchedule)
}
