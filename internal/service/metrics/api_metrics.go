package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
)

var (
    once sync.Once

    EndpointLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "stockpredict",
            Subsystem: "api",
            Name:      "latency_seconds",
            Help:      "Latency of prediction endpoints",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"endpoint"},
    )

    EndpointErrors = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "stockpredict",
            Subsystem: "api",
            Name:      "errors_total",
            Help:      "Errors by prediction endpoint",
        },
        []string{"endpoint"},
    )

    RateLimited = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "stockpredict",
            Subsystem: "api",
            Name:      "rate_limited_total",
            Help:      "Requests rejected by the per-client rate limiter",
        },
        []string{"endpoint"},
    )

    WSClients = prometheus.NewGauge(
        prometheus.GaugeOpts{
            Namespace: "stockpredict",
            Subsystem: "ws",
            Name:      "clients",
            Help:      "Connected prediction feed clients",
        },
    )
)

func Register() {
    once.Do(func() {
        prometheus.MustRegister(EndpointLatency, EndpointErrors, RateLimited, WSClients)
    })
}
