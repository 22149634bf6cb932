package observability

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
)

// textfileWriter collects OTel metrics into a private Prometheus registry and
// writes them in text exposition format.
type textfileWriter struct {
	path     string
	registry *prometheus.Registry
	reader   *promexporter.Exporter
}

func newTextfileWriter(path string) (*textfileWriter, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return &textfileWriter{path: path, registry: registry, reader: exporter}, nil
}

// write gathers the registry and replaces the metrics file atomically.
func (w *textfileWriter) write() error {
	err := os.MkdirAll(filepath.Dir(w.path), 0o755)
	if err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}

	err = prometheus.WriteToTextfile(w.path, w.registry)
	if err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}

	return nil
}
