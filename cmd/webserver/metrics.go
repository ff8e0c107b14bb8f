package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry        *prometheus.Registry
	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Answers         *prometheus.CounterVec
	BankSize        prometheus.Gauge
}

func NewMetrics(reg *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		registry: reg,
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quizdrill_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quizdrill_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"method", "endpoint"},
		),
		Answers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quizdrill_answers_total",
				Help: "Submitted answers by mode and outcome",
			},
			[]string{"mode", "result"},
		),
		BankSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quizdrill_bank_questions",
			Help: "Number of questions in the bank",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.RequestCounter,
		m.RequestDuration,
		m.Answers,
		m.BankSize,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveAnswer counts one submitted answer
func (m *Metrics) ObserveAnswer(mode string, correct bool) {
	result := "wrong"
	if correct {
		result = "correct"
	}
	m.Answers.WithLabelValues(mode, result).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware records request counts and durations per route pattern
func (m *Metrics) Middleware(next *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		_, pattern := next.Handler(r)
		if pattern == "" {
			pattern = "unmatched"
		}
		m.RequestCounter.WithLabelValues(r.Method, pattern, strconv.Itoa(rec.status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
	})
}
