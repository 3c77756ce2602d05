package planning

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"costfield/grid_world"
	vi "costfield/value_iteration"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ConfigKind is the only outer document kind FromYaml accepts.
const ConfigKind = "planner"

type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// PlannerConfig describes one problem and how to solve it, outside of code.
type PlannerConfig struct {
	// Track names a built-in track; Rows, if set, takes precedence.
	Track string   `yaml:"track"`
	Rows  []string `yaml:"rows"`
	// Moves selects the move generator: "heading" or "compass".
	Moves        string `yaml:"moves"`
	AllowReverse bool   `yaml:"allowreverse"`
	// Costs is a list of key-val pairs: forward, turn, reverse, step.
	Costs []CostParameter `yaml:"costs"`
	// Solver holds mode, workers and maxsweeps. Keys are lower case, as
	// viper folds the case of every key it reads.
	Solver map[string]string `yaml:"solver"`
	// Deadline is a duration after which the solve is abandoned.
	Deadline map[string]string `yaml:"deadline"`
}

type CostParameter struct {
	Key string  `yaml:"key"`
	Val float64 `yaml:"val"`
}

// DefaultConfig solves the debug track for a vehicle that pays to turn.
func DefaultConfig() *PlannerConfig {
	return &PlannerConfig{
		Track:        "debug",
		Moves:        "heading",
		AllowReverse: true,
		Costs: []CostParameter{
			{Key: "forward", Val: 1},
			{Key: "turn", Val: 0.5},
			{Key: "reverse", Val: 2},
			{Key: "step", Val: 1},
		},
		Solver:   map[string]string{"mode": vi.GaussSeidel.String()},
		Deadline: map[string]string{},
	}
}

func (cfg *PlannerConfig) GetCostOrDefault(key string, defaultVal float64) float64 {
	for _, kvp := range cfg.Costs {
		if kvp.Key == key {
			return kvp.Val
		}
	}
	return defaultVal
}

// TurnCosts returns the configured cost model; missing keys fall back to
// grid_world.UniformCosts.
func (cfg *PlannerConfig) TurnCosts() grid_world.TurnCosts {
	return grid_world.TurnCosts{
		Forward: cfg.GetCostOrDefault("forward", grid_world.UniformCosts.Forward),
		Turn:    cfg.GetCostOrDefault("turn", grid_world.UniformCosts.Turn),
		Reverse: cfg.GetCostOrDefault("reverse", grid_world.UniformCosts.Reverse),
		Step:    cfg.GetCostOrDefault("step", grid_world.UniformCosts.Step),
	}
}

// TrackRows resolves Rows or the named built-in track.
func (cfg *PlannerConfig) TrackRows() ([]string, error) {
	if len(cfg.Rows) > 0 {
		return cfg.Rows, nil
	}
	name := cfg.Track
	if name == "" {
		name = "debug"
	}
	rows, ok := grid_world.Tracks[name]
	if !ok {
		return nil, vi.NewConfigurationError(vi.GridError, "unknown track %q", name)
	}
	return rows, nil
}

// MoveGenerator builds the configured generator over grid.
func (cfg *PlannerConfig) MoveGenerator(grid *grid_world.Grid) (vi.MoveGenerator[grid_world.Action], error) {
	switch cfg.Moves {
	case "", "heading":
		return grid_world.HeadingMoves(grid, cfg.AllowReverse), nil
	case "compass":
		return grid_world.CompassMoves(grid), nil
	}
	return nil, vi.NewConfigurationError(vi.MoveError, "unknown move generator %q", cfg.Moves)
}

// SolverSettings parses the solver map. Empty values take the solver defaults.
func (cfg *PlannerConfig) SolverSettings() (mode vi.Mode, workers, maxSweeps int, err error) {
	if mode, err = vi.ParseMode(cfg.Solver["mode"]); err != nil {
		return
	}
	if workers, err = atoiOrZero(cfg.Solver["workers"]); err != nil {
		err = vi.NewConfigurationError(vi.SolverError, "workers: %v", err)
		return
	}
	if maxSweeps, err = atoiOrZero(cfg.Solver["maxsweeps"]); err != nil {
		err = vi.NewConfigurationError(vi.SolverError, "maxsweeps: %v", err)
	}
	return
}

func atoiOrZero(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// Validate rejects negative or NaN costs before any solve starts.
func (cfg *PlannerConfig) Validate() error {
	for _, kvp := range cfg.Costs {
		if kvp.Val < 0 || math.IsNaN(kvp.Val) {
			return vi.NewConfigurationError(vi.CostError, "cost %q is %v", kvp.Key, kvp.Val)
		}
	}
	if _, err := cfg.TrackRows(); err != nil {
		return err
	}
	if _, _, _, err := cfg.SolverSettings(); err != nil {
		return err
	}
	return nil
}

// WithDeadline returns a context extended by the solve deadline, if one is specified.
func (cfg *PlannerConfig) WithDeadline(
	ctx context.Context,
) (context.Context, context.CancelFunc, error) {
	if val, ok := cfg.Deadline["duration"]; ok && val != "" {
		duration, err := time.ParseDuration(val)
		if err != nil {
			return nil, nil, fmt.Errorf("deadline: %w", err)
		}
		innerCtx, cancel := context.WithTimeout(ctx, duration)
		return innerCtx, cancel, nil
	}
	defaultCtx, cancel := context.WithCancel(ctx)
	return defaultCtx, cancel, nil
}

// FromYaml reads an outer {kind, def} document with viper and decodes the
// def block into a PlannerConfig by way of yaml. Fields left out of def keep
// their DefaultConfig values.
func FromYaml(path string) (*PlannerConfig, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	var err error
	if err = vp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	outerConfig := &OuterConfig{}
	if err = vp.Unmarshal(outerConfig); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if outerConfig.Kind != ConfigKind {
		return nil, fmt.Errorf("config %s: kind %q, expected %q", path, outerConfig.Kind, ConfigKind)
	}

	var def []byte
	if def, err = yaml.Marshal(outerConfig.Def); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	innerConfig := DefaultConfig()
	if err = yaml.Unmarshal(def, innerConfig); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err = innerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return innerConfig, nil
}
