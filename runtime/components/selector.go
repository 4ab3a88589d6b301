package components

import (
	"fmt"

	"github.com/pipebase/pipebase/runtime/kernel"
)

// SelectorConfig picks one of the built-in fan-out policies and its
// policy-specific knobs.
type SelectorConfig struct {
	Policy string `yaml:"policy"` // broadcast | round_robin | random | hash
	Seed   uint64 `yaml:"seed"`   // random only; 0 picks a fixed default
}

// HashKeyed is implemented by record types carrying a derived group key
// (generated from a `hash` field hint); the hash selector policy prefers
// it over the record's formatted value.
type HashKeyed interface {
	HashKey() []byte
}

// NewSelector materializes a kernel.Selector for the configured policy.
// The hash policy keys on HashKey() when the record type provides one and
// on the record's formatted value otherwise.
func NewSelector[T any](path string) (kernel.Selector[T], error) {
	cfg := SelectorConfig{Policy: "round_robin"}
	if err := LoadConfig(path, &cfg); err != nil {
		return nil, err
	}
	switch cfg.Policy {
	case "broadcast":
		return kernel.BroadcastSelector[T]{}, nil
	case "round_robin":
		return kernel.NewRoundRobinSelector[T](), nil
	case "random":
		seed := cfg.Seed
		if seed == 0 {
			seed = 1
		}
		return kernel.NewRandomSelector[T](seed), nil
	case "hash":
		return kernel.NewHashSelector(func(t T) []byte {
			if keyed, ok := any(t).(HashKeyed); ok {
				return keyed.HashKey()
			}
			return fmt.Appendf(nil, "%v", t)
		}), nil
	default:
		return nil, fmt.Errorf("unknown selector policy %q", cfg.Policy)
	}
}
