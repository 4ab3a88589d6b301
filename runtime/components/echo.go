package components

import (
	"context"

	"github.com/pipebase/pipebase/pkg/logger"
)

// EchoConfig configures an EchoMapper.
type EchoConfig struct {
	Level string `yaml:"level"` // debug | info (default)
}

// EchoMapper logs every record and forwards it unchanged, the smallest
// useful probe to drop into the middle of a pipeline.
type EchoMapper[T any] struct {
	log   *logger.Logger
	debug bool
}

func NewEchoMapper[T any](path string) (*EchoMapper[T], error) {
	var cfg EchoConfig
	if err := LoadConfig(path, &cfg); err != nil {
		return nil, err
	}
	return &EchoMapper[T]{
		log:   logger.New("echo", logger.FormatFromEnv(), "debug", nil),
		debug: cfg.Level == "debug",
	}, nil
}

// NewEchoMapperWithLogger builds an EchoMapper over an explicit logger,
// used by tests to capture output.
func NewEchoMapperWithLogger[T any](log *logger.Logger) *EchoMapper[T] {
	return &EchoMapper[T]{log: log}
}

func (e *EchoMapper[T]) Map(_ context.Context, t T) (T, error) {
	l := e.log.With("record", t)
	if e.debug {
		l.Debug("echo")
	} else {
		l.Info("echo")
	}
	return t, nil
}
