package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("replyd")

var commentsReceived = promauto.NewCounter(prometheus.CounterOpts{
	Name: "replyd_comments_received",
	Help: "Number of comment events received on the ingest endpoint",
})
