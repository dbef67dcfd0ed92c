package governor

import (
	"fmt"
	"os"
	"time"

	"github.com/pipeline-foundation/sct/strategy"
	"gopkg.in/yaml.v3"
)

// Config holds the resolved configuration for a [Scheduler].
type Config struct {
	TestingIterations int
	MaxSchedulingSteps int

	LivenessTemperatureThreshold uint32

	ConcurrencyFuzzingEnabled         bool
	ConcurrencyFuzzingFallbackEnabled bool

	IsCollectionAccessRaceCheckingEnabled bool

	NoBugTraceRepro bool

	DeadlockTimeout time.Duration

	PartiallyControlledConcurrencyAllowed bool

	Strategy strategy.Strategy
	Metrics  *Metrics

	// OnSchedulingPoint, if set, is invoked once per scheduling decision,
	// after the enabled set is computed and before the strategy chooses
	// among it. The exploration driver uses this to tick specification
	// monitors' liveness temperature, keeping the monitor package decoupled
	// from this one.
	OnSchedulingPoint func(s *Scheduler) error
}

// --- Options ---

// Option configures a [Scheduler] via the functional-options pattern.
type Option interface {
	applyConfig(*Config) error
}

type optionFunc struct {
	fn func(*Config) error
}

func (o *optionFunc) applyConfig(cfg *Config) error { return o.fn(cfg) }

func newOption(fn func(*Config) error) Option {
	return &optionFunc{fn: fn}
}

// WithTestingIterations sets the number of exploration iterations to run.
func WithTestingIterations(n int) Option {
	return newOption(func(cfg *Config) error {
		if n < 1 {
			return &ConfigurationError{Reason: "TestingIterations must be >= 1"}
		}
		cfg.TestingIterations = n
		return nil
	})
}

// WithMaxSchedulingSteps bounds the number of scheduling decisions made
// within a single iteration before it is abandoned with [ErrMaxSteps].
func WithMaxSchedulingSteps(n int) Option {
	return newOption(func(cfg *Config) error {
		if n < 1 {
			return &ConfigurationError{Reason: "MaxSchedulingSteps must be >= 1"}
		}
		cfg.MaxSchedulingSteps = n
		return nil
	})
}

// WithLivenessTemperatureThreshold sets Config.LivenessTemperatureThreshold.
// The value is only stored: a monitor Registry uses the threshold passed to
// monitor.NewRegistry and does not read this field.
func WithLivenessTemperatureThreshold(n uint32) Option {
	return newOption(func(cfg *Config) error {
		cfg.LivenessTemperatureThreshold = n
		return nil
	})
}

// WithConcurrencyFuzzing enables the Fuzzing scheduling policy: instead of
// serializing every operation behind the controlled scheduler, operations
// run concurrently and scheduling points merely inject random delays.
// fallback is stored in Config.ConcurrencyFuzzingFallbackEnabled; the
// scheduler does not read it and never switches policy on its own when it
// detects uncontrolled concurrency.
func WithConcurrencyFuzzing(enabled, fallback bool) Option {
	return newOption(func(cfg *Config) error {
		cfg.ConcurrencyFuzzingEnabled = enabled
		cfg.ConcurrencyFuzzingFallbackEnabled = fallback
		return nil
	})
}

// WithCollectionAccessRaceChecking enables instrumented reader/writer
// counters on non-concurrent collections wrapped by this module.
func WithCollectionAccessRaceChecking(enabled bool) Option {
	return newOption(func(cfg *Config) error {
		cfg.IsCollectionAccessRaceCheckingEnabled = enabled
		return nil
	})
}

// WithNoBugTraceRepro makes the exploration driver leave Report.Trace nil
// when it finds a bug. No iteration is re-run under Replay either way.
func WithNoBugTraceRepro(disabled bool) Option {
	return newOption(func(cfg *Config) error {
		cfg.NoBugTraceRepro = disabled
		return nil
	})
}

// WithDeadlockTimeout sets the wall-clock duration the scheduler waits,
// under Fuzzing or partially-controlled concurrency, before declaring a
// potential deadlock.
func WithDeadlockTimeout(d time.Duration) Option {
	return newOption(func(cfg *Config) error {
		if d <= 0 {
			return &ConfigurationError{Reason: "DeadlockTimeout must be positive"}
		}
		cfg.DeadlockTimeout = d
		return nil
	})
}

// WithPartiallyControlledConcurrencyAllowed toggles whether the scheduler
// tolerates operations it cannot attribute to a registered goroutine,
// rather than raising [UncontrolledConcurrencyError].
func WithPartiallyControlledConcurrencyAllowed(allowed bool) Option {
	return newOption(func(cfg *Config) error {
		cfg.PartiallyControlledConcurrencyAllowed = allowed
		return nil
	})
}

// WithMetrics installs a [Metrics] instance for Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return newOption(func(cfg *Config) error {
		cfg.Metrics = m
		return nil
	})
}

// WithSchedulingHook installs a callback invoked once per scheduling
// decision; an error return is treated as an assertion-equivalent bug,
// canceling the iteration. See [Config.OnSchedulingPoint].
func WithSchedulingHook(fn func(s *Scheduler) error) Option {
	return newOption(func(cfg *Config) error {
		cfg.OnSchedulingPoint = fn
		return nil
	})
}

// WithStrategy installs an arbitrary [strategy.Strategy] implementation.
func WithStrategy(s strategy.Strategy) Option {
	return newOption(func(cfg *Config) error {
		if s == nil {
			return &ConfigurationError{Reason: "Strategy must not be nil"}
		}
		cfg.Strategy = s
		return nil
	})
}

// WithRandomStrategy installs [strategy.Random] seeded with seed.
func WithRandomStrategy(seed uint64) Option {
	return WithStrategy(strategy.NewRandom(seed))
}

// WithProbabilisticStrategy installs [strategy.Probabilistic](n), seeded
// with seed.
func WithProbabilisticStrategy(n int, seed uint64) Option {
	return WithStrategy(strategy.NewProbabilistic(n, seed))
}

// WithPrioritizationStrategy installs PCT(d,steps), or FairPCT(d,steps) if
// fair is true. If steps is below 1, it takes the MaxSchedulingSteps value
// in effect when this option is applied (options apply in order).
func WithPrioritizationStrategy(fair bool, d, steps int, seed uint64) Option {
	return newOption(func(cfg *Config) error {
		if steps < 1 {
			steps = cfg.MaxSchedulingSteps
		}
		if fair {
			cfg.Strategy = strategy.NewFairPCT(d, steps, seed, nil)
		} else {
			cfg.Strategy = strategy.NewPCT(d, steps, seed)
		}
		return nil
	})
}

// WithDFSStrategy installs the exhaustive [strategy.DFS] strategy.
func WithDFSStrategy() Option {
	return WithStrategy(strategy.NewDFS())
}

// WithRLStrategy installs the [strategy.RL] Q-learning strategy.
func WithRLStrategy(seed uint64, epsilon float64) Option {
	return WithStrategy(strategy.NewRL(seed, epsilon))
}

// WithReplayStrategy installs [strategy.Replay] over a previously recorded
// [ScheduleTrace], for deterministic bug reproduction.
func WithReplayStrategy(trace *ScheduleTrace) Option {
	return newOption(func(cfg *Config) error {
		if trace == nil {
			return &ConfigurationError{Reason: "Replay trace must not be nil"}
		}
		entries := make([]strategy.ReplayEntry, 0, len(trace.Entries))
		for _, e := range trace.Entries {
			switch e.Kind {
			case TraceOpDecision:
				entries = append(entries, strategy.ReplayEntry{Kind: strategy.ReplayOpDecision, Op: uint64(e.OpID)})
			case TraceBoolDecision:
				entries = append(entries, strategy.ReplayEntry{Kind: strategy.ReplayBoolDecision, Bool: e.Bool})
			case TraceIntDecision:
				entries = append(entries, strategy.ReplayEntry{Kind: strategy.ReplayIntDecision, Int: e.Int})
			}
		}
		cfg.Strategy = strategy.NewReplay(entries)
		return nil
	})
}

// resolveConfig applies opts over the documented defaults: defaults first,
// then each option applied in order, first error wins.
func resolveConfig(opts []Option) (*Config, error) {
	cfg := &Config{
		TestingIterations:            1,
		MaxSchedulingSteps:           10_000,
		LivenessTemperatureThreshold: 150,
		DeadlockTimeout:              5 * time.Second,
		Strategy:                     strategy.NewRandom(0),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyConfig(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// FileConfig is the YAML-serializable subset of [Config] loadable via
// [LoadConfigFile], configuration-file note.
type FileConfig struct {
	TestingIterations                     int    `yaml:"testingIterations"`
	MaxSchedulingSteps                    int    `yaml:"maxSchedulingSteps"`
	LivenessTemperatureThreshold          uint32 `yaml:"livenessTemperatureThreshold"`
	ConcurrencyFuzzingEnabled             bool   `yaml:"concurrencyFuzzingEnabled"`
	ConcurrencyFuzzingFallbackEnabled     bool   `yaml:"concurrencyFuzzingFallbackEnabled"`
	IsCollectionAccessRaceCheckingEnabled bool   `yaml:"collectionAccessRaceCheckingEnabled"`
	NoBugTraceRepro                       bool   `yaml:"noBugTraceRepro"`
	DeadlockTimeoutSeconds                float64 `yaml:"deadlockTimeoutSeconds"`
	PartiallyControlledConcurrencyAllowed bool   `yaml:"partiallyControlledConcurrencyAllowed"`
	Strategy                              string `yaml:"strategy"`
	Seed                                  uint64 `yaml:"seed"`
	PCTPriorityChangePoints               int    `yaml:"pctPriorityChangePoints"`
	ProbabilisticN                        int    `yaml:"probabilisticN"`
}

// LoadConfigFile reads a YAML configuration document from path and
// resolves it into a set of [Option]s, . Strategy names
// recognized in the "strategy" field are "random" (default), "dfs",
// "probabilistic", "pct", "fairpct", and "rl".
func LoadConfigFile(path string) ([]Option, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapError("governor: reading config file", err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, WrapError("governor: parsing config file", err)
	}

	var opts []Option
	if fc.TestingIterations > 0 {
		opts = append(opts, WithTestingIterations(fc.TestingIterations))
	}
	if fc.MaxSchedulingSteps > 0 {
		opts = append(opts, WithMaxSchedulingSteps(fc.MaxSchedulingSteps))
	}
	if fc.LivenessTemperatureThreshold > 0 {
		opts = append(opts, WithLivenessTemperatureThreshold(fc.LivenessTemperatureThreshold))
	}
	opts = append(opts, WithConcurrencyFuzzing(fc.ConcurrencyFuzzingEnabled, fc.ConcurrencyFuzzingFallbackEnabled))
	opts = append(opts, WithCollectionAccessRaceChecking(fc.IsCollectionAccessRaceCheckingEnabled))
	opts = append(opts, WithNoBugTraceRepro(fc.NoBugTraceRepro))
	if fc.DeadlockTimeoutSeconds > 0 {
		opts = append(opts, WithDeadlockTimeout(time.Duration(fc.DeadlockTimeoutSeconds*float64(time.Second))))
	}
	opts = append(opts, WithPartiallyControlledConcurrencyAllowed(fc.PartiallyControlledConcurrencyAllowed))

	switch fc.Strategy {
	case "", "random":
		opts = append(opts, WithRandomStrategy(fc.Seed))
	case "dfs":
		opts = append(opts, WithDFSStrategy())
	case "probabilistic":
		n := fc.ProbabilisticN
		if n < 1 {
			n = 4
		}
		opts = append(opts, WithProbabilisticStrategy(n, fc.Seed))
	case "pct":
		opts = append(opts, WithPrioritizationStrategy(false, fc.PCTPriorityChangePoints, fc.MaxSchedulingSteps, fc.Seed))
	case "fairpct":
		opts = append(opts, WithPrioritizationStrategy(true, fc.PCTPriorityChangePoints, fc.MaxSchedulingSteps, fc.Seed))
	case "rl":
		opts = append(opts, WithRLStrategy(fc.Seed, 0.2))
	default:
		return nil, &ConfigurationError{Reason: fmt.Sprintf("unknown strategy %q", fc.Strategy)}
	}

	return opts, nil
}
