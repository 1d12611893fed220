package observability

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 汇总请求编排相关的 Prometheus 指标。
type Metrics struct {
	attempts     *prometheus.CounterVec
	sends        *prometheus.CounterVec
	sendDuration *prometheus.HistogramVec
	retries      prometheus.Counter
}

// NewMetrics 创建指标并注册到 reg；reg 为 nil 时不注册，仅在内存中计数。
// 同一 reg 上重复创建时复用已注册的采集器。
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shopassist_completion_attempts_total",
				Help: "Total number of completion gateway calls",
			},
			[]string{"outcome"},
		),
		sends: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shopassist_sends_total",
				Help: "Total number of user sends by final outcome",
			},
			[]string{"intent", "outcome"},
		),
		sendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shopassist_send_duration_seconds",
				Help:    "Send duration in seconds including retries",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"intent"},
		),
		retries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "shopassist_retries_total",
				Help: "Total number of retried completion calls",
			},
		),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	if m.attempts, err = register(reg, m.attempts); err != nil {
		return nil, err
	}
	if m.sends, err = register(reg, m.sends); err != nil {
		return nil, err
	}
	if m.sendDuration, err = register(reg, m.sendDuration); err != nil {
		return nil, err
	}
	if m.retries, err = register(reg, m.retries); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordAttempt 记录一次网关调用，outcome 为 ok 或错误分类名。
func (m *Metrics) RecordAttempt(outcome string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(outcome).Inc()
}

// RecordRetry 记录一次重试。
func (m *Metrics) RecordRetry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

// RecordSend 记录一次发送的最终结果与耗时。
func (m *Metrics) RecordSend(intent, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.sends.WithLabelValues(intent, outcome).Inc()
	m.sendDuration.WithLabelValues(intent).Observe(d.Seconds())
}
