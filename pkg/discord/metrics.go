package discord

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var commandsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "nucleo_commands_total",
	Help: "Interacciones de comando por nombre y resultado final",
}, []string{"command", "outcome"})

var commandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "nucleo_command_duration_seconds",
	Help:    "Duración de los handlers de comando",
	Buckets: prometheus.DefBuckets,
}, []string{"command"})
