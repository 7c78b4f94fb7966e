package detector

import (
	"errors"
	"fmt"
	"time"

	"github.com/RyanBlaney/sonido-clap/algorithms/common"
)

var (
	ErrEmptyBlock        = errors.New("audio block is empty")
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	ErrNonFiniteSample   = errors.New("audio block contains NaN or Inf samples")
)

// AudioBlock is one fixed-length block of mono samples in [-1, 1]. The
// detector reads Samples only for the duration of a call.
type AudioBlock struct {
	Samples    []float64
	SampleRate int
}

// NewAudioBlock creates a block over samples without copying them
func NewAudioBlock(samples []float64, sampleRate int) AudioBlock {
	return AudioBlock{Samples: samples, SampleRate: sampleRate}
}

// Len returns the number of samples in the block
func (b AudioBlock) Len() int {
	return len(b.Samples)
}

// Duration returns the time span the block covers, or 0 when the sample
// rate is not positive
func (b AudioBlock) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(b.Samples)) * time.Second / time.Duration(b.SampleRate)
}

// Validate reports why the block cannot be analysed, if it cannot
func (b AudioBlock) Validate() error {
	if len(b.Samples) == 0 {
		return ErrEmptyBlock
	}
	if b.SampleRate <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidSampleRate, b.SampleRate)
	}
	if !common.AllFinite(b.Samples) {
		return ErrNonFiniteSample
	}
	return nil
}

// analyzable is Validate without building an error
func (b AudioBlock) analyzable() bool {
	return len(b.Samples) > 0 && b.SampleRate > 0 && common.AllFinite(b.Samples)
}

// State is the detector memory carried from one block to the next. It is
// owned by the caller and threaded through every Analyze call of a session.
type State struct {
	NoiseFloor float64 `json:"noise_floor"` // current ambient energy estimate
	PrevEnergy float64 `json:"prev_energy"` // energy of the previous block
}

// NewState seeds a session with an initial noise floor estimate
func NewState(initialNoiseFloor float64) State {
	return State{NoiseFloor: common.NonNegative(initialNoiseFloor)}
}

// Next returns the state to pass with the block following the one that
// produced r
func (s State) Next(r Result) State {
	return State{
		NoiseFloor: r.UpdatedNoiseFloor,
		PrevEnergy: r.Energy,
	}
}

// Stage identifies the pipeline stage that settled a block's outcome
type Stage int

const (
	StageInvalid        Stage = iota // block failed validation
	StageBelowNoise                  // rejected by the above-noise gate
	StageNoOnset                     // rejected by the transient onset gate
	StageSpectralReject              // high band too weak
	StageDetected                    // clap
)

func (s Stage) String() string {
	switch s {
	case StageInvalid:
		return "invalid"
	case StageBelowNoise:
		return "below_noise"
	case StageNoOnset:
		return "no_onset"
	case StageSpectralReject:
		return "spectral_reject"
	case StageDetected:
		return "detected"
	default:
		return "unknown"
	}
}

// Result is the outcome of analysing one block
type Result struct {
	Detected          bool    `json:"detected"`
	Energy            float64 `json:"energy"`
	UpdatedNoiseFloor float64 `json:"updated_noise_floor"`

	// HFRatio is the high-band energy fraction, 0 unless the spectral
	// stage ran
	HFRatio float64 `json:"hf_ratio"`
	Stage   Stage   `json:"stage"`
}
