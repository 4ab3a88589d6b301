package components

import (
	"context"
	"time"

	"github.com/pipebase/pipebase/runtime/kernel"
)

// TimerConfig configures a TimerPoller. Ticks == 0 means run until
// cancelled.
type TimerConfig struct {
	InitialDelayMillis uint64 `yaml:"initial_delay_ms"`
	IntervalMillis     uint64 `yaml:"interval_ms"`
	Ticks              uint64 `yaml:"ticks"`
}

// TimerPoller emits an incrementing uint64 tick counter on a fixed
// interval, exiting after the configured tick count.
type TimerPoller struct {
	cfg  TimerConfig
	tick uint64
}

func NewTimerPoller(path string) (*TimerPoller, error) {
	cfg := TimerConfig{IntervalMillis: 1000}
	if err := LoadConfig(path, &cfg); err != nil {
		return nil, err
	}
	return &TimerPoller{cfg: cfg}, nil
}

func (p *TimerPoller) InitialDelay() time.Duration {
	return time.Duration(p.cfg.InitialDelayMillis) * time.Millisecond
}

func (p *TimerPoller) Interval() time.Duration {
	return time.Duration(p.cfg.IntervalMillis) * time.Millisecond
}

func (p *TimerPoller) Poll(_ context.Context) (kernel.PollOutcome[uint64], error) {
	if p.cfg.Ticks > 0 && p.tick >= p.cfg.Ticks {
		return kernel.PollOutcome[uint64]{Exit: true}, nil
	}
	v := p.tick
	p.tick++
	return kernel.PollOutcome[uint64]{Value: &v}, nil
}

func init() {
	Register("Timer", func(path string) (any, error) { return NewTimerPoller(path) })
}
