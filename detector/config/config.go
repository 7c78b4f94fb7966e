package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid detector config")

// DetectorConfig holds the detection parameters of one listening session.
// It is treated as immutable once a session starts.
type DetectorConfig struct {
	// Detection gates
	Threshold  float64 `json:"threshold"`    // minimum energy for any event to be considered
	ClapRatio  float64 `json:"clap_ratio"`   // required multiple of the noise floor
	OnsetRatio float64 `json:"onset_ratio"`  // required energy jump vs. the previous block
	HFRatioMin float64 `json:"hf_ratio_min"` // minimum high-band energy fraction, 0.0-1.0
	NoiseAlpha float64 `json:"noise_alpha"`  // noise floor smoothing factor, 0.0-1.0

	// Session seeding and framing
	InitialNoiseFloor float64 `json:"initial_noise_floor"`
	SampleRate        int     `json:"sample_rate"`
	BlockSize         int     `json:"block_size"`
}

// Environment names a listening environment with its own tuning
type Environment string

const (
	EnvironmentQuiet  Environment = "quiet"
	EnvironmentOffice Environment = "office"
	EnvironmentNoisy  Environment = "noisy"
)

// DefaultDetectorConfig returns the tuning the desktop listener ships with
func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{
		Threshold:         15.0,
		ClapRatio:         4.0,
		OnsetRatio:        6.0,
		HFRatioMin:        0.30,
		NoiseAlpha:        0.02,
		InitialNoiseFloor: 2.0,
		SampleRate:        22050,
		BlockSize:         512, // ~23ms at 22050 Hz
	}
}

// EnvironmentOptimizedConfig returns a configuration tuned for the given
// environment. Unknown environments get the defaults.
func EnvironmentOptimizedConfig(env Environment) *DetectorConfig {
	config := DefaultDetectorConfig()

	switch env {
	case EnvironmentQuiet:
		config.Threshold = 8.0 // claps read much louder than a silent room
		config.ClapRatio = 5.0
		config.InitialNoiseFloor = 0.5

	case EnvironmentOffice:
		config.Threshold = 15.0
		config.OnsetRatio = 5.0
		config.HFRatioMin = 0.35 // keyboard thumps and speech sit low

	case EnvironmentNoisy:
		config.Threshold = 25.0
		config.ClapRatio = 3.0
		config.OnsetRatio = 4.0
		config.HFRatioMin = 0.40
		config.NoiseAlpha = 0.05 // follow changing ambience faster
		config.InitialNoiseFloor = 6.0
	}

	return config
}

// Validate checks every field against its domain
func (c *DetectorConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}

	nonNegative := []struct {
		name  string
		value float64
	}{
		{"threshold", c.Threshold},
		{"clap_ratio", c.ClapRatio},
		{"onset_ratio", c.OnsetRatio},
		{"initial_noise_floor", c.InitialNoiseFloor},
	}
	for _, f := range nonNegative {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			return fmt.Errorf("%w: %s must be a finite non-negative number, got %v", ErrInvalidConfig, f.name, f.value)
		}
	}

	if !inUnitRange(c.HFRatioMin) {
		return fmt.Errorf("%w: hf_ratio_min must be within [0, 1], got %v", ErrInvalidConfig, c.HFRatioMin)
	}
	if !inUnitRange(c.NoiseAlpha) {
		return fmt.Errorf("%w: noise_alpha must be within [0, 1], got %v", ErrInvalidConfig, c.NoiseAlpha)
	}

	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample_rate must be positive, got %d", ErrInvalidConfig, c.SampleRate)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("%w: block_size must be positive, got %d", ErrInvalidConfig, c.BlockSize)
	}

	return nil
}

func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}

// Load reads a JSON configuration file over the defaults. Fields missing
// from the file keep their default values.
func Load(path string) (*DetectorConfig, error) {
	config := DefaultDetectorConfig()
	if err := LoadInto(config, path); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadInto reads a JSON configuration file over c, e.g. over a preset
func LoadInto(c *DetectorConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return nil
}

// Environment variables recognised by ApplyEnv and ApplyEnvFile
const (
	EnvThreshold         = "CLAP_THRESHOLD"
	EnvClapRatio         = "CLAP_RATIO"
	EnvOnsetRatio        = "CLAP_ONSET_RATIO"
	EnvHFRatioMin        = "CLAP_HF_RATIO_MIN"
	EnvNoiseAlpha        = "CLAP_NOISE_ALPHA"
	EnvInitialNoiseFloor = "CLAP_INITIAL_NOISE_FLOOR"
	EnvSampleRate        = "CLAP_SAMPLE_RATE"
	EnvBlockSize         = "CLAP_BLOCK_SIZE"
)

// ApplyEnv overlays CLAP_* variables from the process environment
func ApplyEnv(c *DetectorConfig) error {
	return applyLookup(c, os.LookupEnv)
}

// ApplyEnvFile overlays CLAP_* variables read from a dotenv file. The
// process environment is left untouched.
func ApplyEnvFile(c *DetectorConfig, path string) error {
	values, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return applyLookup(c, func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	})
}

func applyLookup(c *DetectorConfig, lookup func(string) (string, bool)) error {
	floatFields := []struct {
		key string
		dst *float64
	}{
		{EnvThreshold, &c.Threshold},
		{EnvClapRatio, &c.ClapRatio},
		{EnvOnsetRatio, &c.OnsetRatio},
		{EnvHFRatioMin, &c.HFRatioMin},
		{EnvNoiseAlpha, &c.NoiseAlpha},
		{EnvInitialNoiseFloor, &c.InitialNoiseFloor},
	}
	for _, f := range floatFields {
		raw, ok := lookup(f.key)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, f.key, raw)
		}
		*f.dst = v
	}

	intFields := []struct {
		key string
		dst *int
	}{
		{EnvSampleRate, &c.SampleRate},
		{EnvBlockSize, &c.BlockSize},
	}
	for _, f := range intFields {
		raw, ok := lookup(f.key)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, f.key, raw)
		}
		*f.dst = v
	}

	return nil
}
