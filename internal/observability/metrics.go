package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	chunksSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cliptunnel",
			Subsystem: "sender",
			Name:      "chunks_sent_total",
			Help:      "Chunks published to the shared channel, including republishes.",
		},
	)
	chunkRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cliptunnel",
			Subsystem: "sender",
			Name:      "chunk_retries_total",
			Help:      "Chunk republishes after an acknowledgement timeout.",
		},
	)
	chunksReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cliptunnel",
			Subsystem: "receiver",
			Name:      "chunks_received_total",
			Help:      "Distinct chunks persisted by the receiver.",
		},
	)
	duplicateChunks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cliptunnel",
			Subsystem: "receiver",
			Name:      "duplicate_chunks_total",
			Help:      "Chunks observed more than once and re-acknowledged.",
		},
	)
	transfers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cliptunnel",
			Subsystem: "transfer",
			Name:      "completed_total",
			Help:      "Finished transfers by role and outcome.",
		},
		[]string{"role", "outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(chunksSent, chunkRetries, chunksReceived, duplicateChunks, transfers)
	})
}

func RecordChunkSent() {
	RegisterMetrics()
	chunksSent.Inc()
}

func RecordChunkRetry() {
	RegisterMetrics()
	chunkRetries.Inc()
}

func RecordChunkReceived() {
	RegisterMetrics()
	chunksReceived.Inc()
}

func RecordDuplicateChunk() {
	RegisterMetrics()
	duplicateChunks.Inc()
}

func RecordTransfer(role, outcome string) {
	RegisterMetrics()
	transfers.WithLabelValues(role, outcome).Inc()
}
