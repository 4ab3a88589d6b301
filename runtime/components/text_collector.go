package components

import (
	"context"
	"strings"
	"time"
)

// TextCollectorConfig configures a TextCollector.
type TextCollectorConfig struct {
	Separator         string `yaml:"separator"`
	FlushPeriodMillis uint64 `yaml:"flush_period_ms"`
}

// TextCollector batches incoming strings and flushes them as one string on
// each interval tick, each item followed by the configured separator. An
// empty batch flushes nothing.
type TextCollector struct {
	cfg TextCollectorConfig
	buf strings.Builder
	n   int
}

func NewTextCollector(path string) (*TextCollector, error) {
	cfg := TextCollectorConfig{Separator: ",", FlushPeriodMillis: 1000}
	if err := LoadConfig(path, &cfg); err != nil {
		return nil, err
	}
	return &TextCollector{cfg: cfg}, nil
}

func (c *TextCollector) FlushInterval() time.Duration {
	return time.Duration(c.cfg.FlushPeriodMillis) * time.Millisecond
}

func (c *TextCollector) Collect(_ context.Context, s string) error {
	c.buf.WriteString(s)
	c.buf.WriteString(c.cfg.Separator)
	c.n++
	return nil
}

func (c *TextCollector) Flush(_ context.Context) (*string, error) {
	if c.n == 0 {
		return nil, nil
	}
	out := c.buf.String()
	c.buf.Reset()
	c.n = 0
	return &out, nil
}

func init() {
	Register("TextCollector", func(path string) (any, error) { return NewTextCollector(path) })
}
