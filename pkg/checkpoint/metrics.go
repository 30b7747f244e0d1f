package checkpoint

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CheckpointHits tracks checkpoints found on Get
	CheckpointHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "explorer_checkpoint_hits_total",
			Help: "Total number of walk checkpoints found",
		},
	)

	// CheckpointMisses tracks Get calls without a stored checkpoint
	CheckpointMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "explorer_checkpoint_misses_total",
			Help: "Total number of walk checkpoint lookups without a stored checkpoint",
		},
	)

	// CheckpointSaves tracks successful saves
	CheckpointSaves = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "explorer_checkpoint_saves_total",
			Help: "Total number of walk checkpoints saved",
		},
	)

	// CheckpointErrors tracks store operation errors
	CheckpointErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_checkpoint_errors_total",
			Help: "Total number of walk checkpoint store errors",
		},
		[]string{"operation"}, // "get", "save", "delete"
	)
)
