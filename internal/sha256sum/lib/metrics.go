package lib

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects counters for one sha256sum run. They are exported in the
// Prometheus textfile format so a node exporter can pick them up after batch
// jobs. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	bytesHashed prometheus.Counter
	blocks      prometheus.Counter
	chunks      prometheus.Counter
	duration    prometheus.Gauge
}

// NewMetrics creates a Metrics with its own registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		bytesHashed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sha256sum_bytes_hashed_total",
			Help: "Message bytes absorbed by the digest engine.",
		}),
		blocks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sha256sum_blocks_compressed_total",
			Help: "Compression passes run, including padding blocks.",
		}),
		chunks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sha256sum_chunks_total",
			Help: "Content-defined chunks produced for manifests.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sha256sum_hash_duration_seconds",
			Help: "Wall time of the most recent whole-file hash.",
		}),
	}
	m.registry.MustRegister(m.bytesHashed, m.blocks, m.chunks, m.duration)
	return m
}

// blocksFor returns how many compression passes hashing n bytes takes: one per
// full block plus the padding, which needs 9 more bytes (0x80 and the length).
func blocksFor(n int64) int64 {
	return (n + 9 + 63) / 64
}

// ObserveHash records one finished whole-file hash.
func (m *Metrics) ObserveHash(n int64, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.bytesHashed.Add(float64(n))
	m.blocks.Add(float64(blocksFor(n)))
	m.duration.Set(elapsed.Seconds())
}

// ObserveChunks records chunks produced for a manifest.
func (m *Metrics) ObserveChunks(count int) {
	if m == nil {
		return
	}
	m.chunks.Add(float64(count))
}

// WriteTextfile writes all metrics to path in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
