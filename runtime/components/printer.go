package components

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// PrinterConfig selects where a PrintExporter writes.
type PrinterConfig struct {
	Target string `yaml:"target"` // "stdout" (default) or "stderr"
}

// PrintExporter is a terminal sink writing one line per record, the
// reference exporter for smoke pipelines and the generated skeleton app.
type PrintExporter[T any] struct {
	mu sync.Mutex
	w  io.Writer
}

func NewPrintExporter[T any](path string) (*PrintExporter[T], error) {
	var cfg PrinterConfig
	if err := LoadConfig(path, &cfg); err != nil {
		return nil, err
	}
	w := io.Writer(os.Stdout)
	if cfg.Target == "stderr" {
		w = os.Stderr
	}
	return &PrintExporter[T]{w: w}, nil
}

// NewWriterExporter builds a PrintExporter over an explicit writer, used
// by tests to capture output.
func NewWriterExporter[T any](w io.Writer) *PrintExporter[T] {
	return &PrintExporter[T]{w: w}
}

func (e *PrintExporter[T]) Export(_ context.Context, t T) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := fmt.Fprintln(e.w, t)
	return err
}
