package detector

import (
	"fmt"

	"github.com/RyanBlaney/sonido-clap/algorithms/common"
	"github.com/RyanBlaney/sonido-clap/detector/config"
	"github.com/RyanBlaney/sonido-clap/logging"
	"github.com/google/uuid"
)

// Session is a listening session over one audio stream. It owns the State
// and threads it through Analyze for every block.
//
// A Session is not safe for concurrent use: run one per stream and call
// Process from the capture loop only.
type Session struct {
	id     string
	config config.DetectorConfig
	state  State
	logger logging.Logger

	processed  int
	detections int
}

// SessionOption customises a Session
type SessionOption func(*Session)

// WithLogger sets the session logger. Session fields are added to it.
func WithLogger(logger logging.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSessionID overrides the generated session ID
func WithSessionID(id string) SessionOption {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// WithInitialState starts the session from a saved state instead of the
// configured initial noise floor
func WithInitialState(state State) SessionOption {
	return func(s *Session) {
		s.state = State{
			NoiseFloor: common.NonNegative(state.NoiseFloor),
			PrevEnergy: common.NonNegative(state.PrevEnergy),
		}
	}
}

// NewSession validates cfg and starts a session seeded with its initial
// noise floor
func NewSession(cfg *config.DetectorConfig, opts ...SessionOption) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		id:     uuid.NewString(),
		config: *cfg,
		state:  NewState(cfg.InitialNoiseFloor),
		logger: logging.GetGlobalLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.logger = s.logger.WithFields(logging.Fields{
		"component":  "clap_session",
		"session_id": s.id,
	})

	s.logger.Debug("Listening session started", logging.Fields{
		"threshold":     s.config.Threshold,
		"clap_ratio":    s.config.ClapRatio,
		"onset_ratio":   s.config.OnsetRatio,
		"hf_ratio_min":  s.config.HFRatioMin,
		"noise_alpha":   s.config.NoiseAlpha,
		"initial_floor": s.state.NoiseFloor,
	})

	return s, nil
}

// Process analyses the next block of the stream and advances the state.
// Invalid blocks are rejected with an error and leave the state untouched.
func (s *Session) Process(block AudioBlock) (Result, error) {
	if err := block.Validate(); err != nil {
		s.logger.Warn("Rejected audio block", logging.Fields{
			"block":   s.processed,
			"samples": block.Len(),
			"reason":  err.Error(),
		})
		return Result{UpdatedNoiseFloor: s.state.NoiseFloor, Stage: StageInvalid},
			fmt.Errorf("block %d: %w", s.processed, err)
	}

	result := Analyze(block, s.config, s.state)
	s.state = s.state.Next(result)
	s.processed++

	if result.Detected {
		s.detections++
		s.logger.Info("Clap detected", logging.Fields{
			"block":       s.processed - 1,
			"energy":      result.Energy,
			"hf_ratio":    result.HFRatio,
			"noise_floor": result.UpdatedNoiseFloor,
		})
	}

	return result, nil
}

// Resume forgets the previous block's energy, so the first block after a
// pause must show an absolute onset. The noise floor is kept.
func (s *Session) Resume() {
	s.state.PrevEnergy = 0
}

// Reset re-seeds the noise floor and clears the previous energy
func (s *Session) Reset(noiseFloor float64) {
	s.state = NewState(noiseFloor)
	s.logger.Debug("Session state reset", logging.Fields{
		"noise_floor": s.state.NoiseFloor,
	})
}

// ID returns the session ID
func (s *Session) ID() string {
	return s.id
}

// Config returns the session configuration
func (s *Session) Config() config.DetectorConfig {
	return s.config
}

// State returns the state the next block will be analysed with
func (s *Session) State() State {
	return s.state
}

// Processed returns the number of blocks analysed
func (s *Session) Processed() int {
	return s.processed
}

// Detections returns the number of claps detected
func (s *Session) Detections() int {
	return s.detections
}
