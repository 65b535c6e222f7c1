package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "controlpanel"

var (
	// FetchTotal 快照拉取次数，result=ok|network|http|parse|other|discarded
	FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_total",
		Help:      "Snapshot fetches by result.",
	}, []string{"result"})

	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fetch_duration_seconds",
		Help:      "Latency of a full five-endpoint snapshot fetch.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	// ActionTotal 用户动作次数，action=start|stop|close，result=ok|skipped|<error kind>
	ActionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "action_total",
		Help:      "Dispatched control actions by action and result.",
	}, []string{"action", "result"})

	// PollTicks 定时器触发次数，cadence=base|fast|manual
	PollTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_ticks_total",
		Help:      "Poller timer firings by cadence.",
	}, []string{"cadence"})

	StrategyRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "strategy_running",
		Help:      "1 when the last known strategy state is running.",
	})
)

// ObserveFetch 记录一次拉取
func ObserveFetch(result string, elapsed time.Duration) {
	FetchTotal.WithLabelValues(result).Inc()
	FetchDuration.Observe(elapsed.Seconds())
}

func SetRunning(running bool) {
	if running {
		StrategyRunning.Set(1)
		return
	}
	StrategyRunning.Set(0)
}
