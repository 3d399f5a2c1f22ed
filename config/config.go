// Package config provides configuration loading and access for the solver.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all solver configuration parameters.
type Config struct {
	Physics    PhysicsConfig    `yaml:"physics"`
	Precompute PrecomputeConfig `yaml:"precompute"`
	Scan       ScanConfig       `yaml:"scan"`
	Evolve     EvolveConfig     `yaml:"evolve"`
	Output     OutputConfig     `yaml:"output"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Storage    StorageConfig    `yaml:"storage"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// PhysicsConfig holds the character movement constants.
type PhysicsConfig struct {
	Accel           float64 `yaml:"accel"`            // Speed change per frame towards the target
	MaxX            float64 `yaml:"max_x"`            // Horizontal speed clamp
	MaxY            float64 `yaml:"max_y"`            // Vertical speed clamp
	TargetX         float64 `yaml:"target_x"`         // Target ellipse horizontal semi-axis
	TargetY         float64 `yaml:"target_y"`         // Target ellipse vertical semi-axis
	FrameRate       float64 `yaml:"frame_rate"`       // Frames per second; position += speed / frame_rate
	RetentionFrames int     `yaml:"retention_frames"` // Frames a wall-blocked X speed is retained
	Deadzone        float64 `yaml:"deadzone"`         // Circular stick deadzone radius
}

// PrecomputeConfig holds movement table build parameters.
type PrecomputeConfig struct {
	Cap          int     `yaml:"cap"`            // Largest stored free distance, 1..255
	Workers      int     `yaml:"workers"`        // 0 = GOMAXPROCS
	GridCellSize float64 `yaml:"grid_cell_size"` // Spatial index bucket size
	CacheDir     string  `yaml:"cache_dir"`      // Empty disables the table cache
}

// ScanConfig holds greedy runner parameters.
type ScanConfig struct {
	MaxFrames int `yaml:"max_frames"`
}

// EvolveConfig holds evolutionary search parameters.
type EvolveConfig struct {
	Population        int     `yaml:"population"`
	GenomeLength      int     `yaml:"genome_length"`      // Frames simulated per genome
	Generations       int     `yaml:"generations"`        // Generations per commit round
	CommitFrames      int     `yaml:"commit_frames"`      // Frames committed per round
	Elite             int     `yaml:"elite"`              // Best genomes copied unchanged
	SelectionPressure float64 `yaml:"selection_pressure"` // Linear rank selection, 1..2
	CrossoverPoints   int     `yaml:"crossover_points"`   // 1 or 2
	CrossoverRate     float64 `yaml:"crossover_rate"`
	MutationRate      float64 `yaml:"mutation_rate"` // Per-gene probability
	MaxDelta          int     `yaml:"max_delta"`     // Mutation step, millidegrees
	ResetRate         float64 `yaml:"reset_rate"`    // Fraction of mutations that resample the gene
	CheckpointReward  float64 `yaml:"checkpoint_reward"`
	FramePenalty      float64 `yaml:"frame_penalty"`
	DeathPenalty      float64 `yaml:"death_penalty"`
	PreciseFinal      bool    `yaml:"precise_final"`     // Sub-frame timing on the final checkpoint
	HallSize          int     `yaml:"hall_size"`         // Best genomes remembered per round
	StagnationWindow  int     `yaml:"stagnation_window"` // Generations without improvement before reseeding
	Seed              uint64  `yaml:"seed"`
	Workers           int     `yaml:"workers"` // 0 = GOMAXPROCS
	MaxFrames         int     `yaml:"max_frames"`
}

// OutputConfig holds output file settings.
type OutputConfig struct {
	FrameLabel string `yaml:"frame_label"` // Label written in each script line
	Dir        string `yaml:"dir"`         // Empty disables file output
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfCollectorWindow int `yaml:"perf_collector_window"`
	LogEvery            int `yaml:"log_every"` // Log generation stats every N generations
}

// StorageConfig holds run history settings.
type StorageConfig struct {
	DBPath string `yaml:"db_path"` // Empty disables run history
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Accel32           float32 // Physics.Accel as float32
	MaxX32            float32
	MaxY32            float32
	TargetX32         float32
	TargetY32         float32
	FrameRate32       float32
	PrecomputeWorkers int // Precompute.Workers resolved against GOMAXPROCS
	EvolveWorkers     int // Evolve.Workers resolved against GOMAXPROCS
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()
	return cfg, nil
}

// Validate rejects parameter combinations the solver cannot run with.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	p := c.Physics
	check(p.Accel > 0, "physics.accel must be positive, got %g", p.Accel)
	check(p.MaxX > 0 && p.MaxY > 0, "physics max speeds must be positive")
	check(p.TargetX > 0 && p.TargetY > 0, "physics target ellipse must be positive")
	check(p.FrameRate > 0, "physics.frame_rate must be positive, got %g", p.FrameRate)
	check(p.RetentionFrames >= 0, "physics.retention_frames must not be negative")
	check(p.Deadzone >= 0 && p.Deadzone < 1, "physics.deadzone must be in [0, 1), got %g", p.Deadzone)

	check(c.Precompute.Cap >= 1 && c.Precompute.Cap <= 255, "precompute.cap must be in [1, 255], got %d", c.Precompute.Cap)
	check(c.Precompute.Workers >= 0, "precompute.workers must not be negative")
	check(c.Scan.MaxFrames > 0, "scan.max_frames must be positive")

	e := c.Evolve
	check(e.Population >= 2, "evolve.population must be at least 2, got %d", e.Population)
	check(e.GenomeLength > 0, "evolve.genome_length must be positive")
	check(e.Generations > 0, "evolve.generations must be positive")
	check(e.CommitFrames > 0 && e.CommitFrames < e.GenomeLength,
		"evolve.commit_frames must be in [1, genome_length), got %d", e.CommitFrames)
	check(e.Elite >= 0 && e.Elite < e.Population, "evolve.elite must be in [0, population)")
	check(e.SelectionPressure >= 1 && e.SelectionPressure <= 2,
		"evolve.selection_pressure must be in [1, 2], got %g", e.SelectionPressure)
	check(e.CrossoverPoints == 1 || e.CrossoverPoints == 2, "evolve.crossover_points must be 1 or 2")
	check(e.CrossoverRate >= 0 && e.CrossoverRate <= 1, "evolve.crossover_rate must be in [0, 1]")
	check(e.MutationRate >= 0 && e.MutationRate <= 1, "evolve.mutation_rate must be in [0, 1]")
	check(e.ResetRate >= 0 && e.ResetRate <= 1, "evolve.reset_rate must be in [0, 1]")
	check(e.MaxDelta > 0, "evolve.max_delta must be positive")
	check(e.MaxFrames > 0, "evolve.max_frames must be positive")
	check(e.HallSize >= 0, "evolve.hall_size must not be negative")
	check(e.StagnationWindow >= 0, "evolve.stagnation_window must not be negative")
	check(e.Workers >= 0, "evolve.workers must not be negative")

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Accel32 = float32(c.Physics.Accel)
	c.Derived.MaxX32 = float32(c.Physics.MaxX)
	c.Derived.MaxY32 = float32(c.Physics.MaxY)
	c.Derived.TargetX32 = float32(c.Physics.TargetX)
	c.Derived.TargetY32 = float32(c.Physics.TargetY)
	c.Derived.FrameRate32 = float32(c.Physics.FrameRate)

	c.Derived.PrecomputeWorkers = c.Precompute.Workers
	if c.Derived.PrecomputeWorkers == 0 {
		c.Derived.PrecomputeWorkers = runtime.GOMAXPROCS(0)
	}
	c.Derived.EvolveWorkers = c.Evolve.Workers
	if c.Derived.EvolveWorkers == 0 {
		c.Derived.EvolveWorkers = runtime.GOMAXPROCS(0)
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
