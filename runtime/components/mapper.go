package components

import (
	"context"
	"strings"
)

// IdentityMapper forwards every record unchanged, the reference mapper
// for wiring and backpressure tests.
type IdentityMapper[T any] struct{}

func NewIdentityMapper[T any](path string) (IdentityMapper[T], error) {
	// No config surface; path accepted for constructor uniformity.
	return IdentityMapper[T]{}, nil
}

func (IdentityMapper[T]) Map(_ context.Context, t T) (T, error) {
	return t, nil
}

// MapFunc adapts a plain function to the Mapper capability, the shortest
// path from user logic to a pipe component.
type MapFunc[T, U any] func(ctx context.Context, t T) (U, error)

func (f MapFunc[T, U]) Map(ctx context.Context, t T) (U, error) {
	return f(ctx, t)
}

// FilterStreamer forwards only records satisfying Pred. Filtering is a
// one-to-zero-or-one expansion, which is the Streamer capability's domain
// rather than Mapper's strict one-to-one.
type FilterStreamer[T any] struct {
	Pred func(T) bool
}

func NewFilterStreamer[T any](pred func(T) bool) *FilterStreamer[T] {
	return &FilterStreamer[T]{Pred: pred}
}

func (s *FilterStreamer[T]) Stream(ctx context.Context, t T, emit func(context.Context, T) error) error {
	if s.Pred == nil || !s.Pred(t) {
		return nil
	}
	return emit(ctx, t)
}

// SplitStreamer expands a string into one record per separator-delimited
// field, the inverse of TextCollector.
type SplitStreamerConfig struct {
	Separator string `yaml:"separator"`
}

type SplitStreamer struct {
	sep string
}

func NewSplitStreamer(path string) (*SplitStreamer, error) {
	cfg := SplitStreamerConfig{Separator: ","}
	if err := LoadConfig(path, &cfg); err != nil {
		return nil, err
	}
	return &SplitStreamer{sep: cfg.Separator}, nil
}

func (s *SplitStreamer) Stream(ctx context.Context, t string, emit func(context.Context, string) error) error {
	for _, part := range strings.Split(t, s.sep) {
		if part == "" {
			continue
		}
		if err := emit(ctx, part); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	Register("SplitStreamer", func(path string) (any, error) { return NewSplitStreamer(path) })
}
