// Package scan runs clap detection over recorded audio and summarises what
// it found. It is the offline counterpart of a live capture loop: audio is
// cut into the configured block size and fed through one detector.Session.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/RyanBlaney/sonido-clap/algorithms/common"
	"github.com/RyanBlaney/sonido-clap/algorithms/filters"
	"github.com/RyanBlaney/sonido-clap/algorithms/spectral"
	"github.com/RyanBlaney/sonido-clap/algorithms/temporal"
	"github.com/RyanBlaney/sonido-clap/detector"
	"github.com/RyanBlaney/sonido-clap/detector/config"
	"github.com/RyanBlaney/sonido-clap/logging"
	"github.com/RyanBlaney/sonido-clap/transcode"
)

// verifyTolerance is the largest accepted gap between the direct two-band
// ratio and the FFT ratio
const verifyTolerance = 1e-6

// rawChunkBytes is the read size for raw float32 streams
const rawChunkBytes = 16 * 1024

// Event is one detected clap
type Event struct {
	Block      int           `json:"block"`
	Offset     time.Duration `json:"offset"`
	Energy     float64       `json:"energy"`
	HFRatio    float64       `json:"hf_ratio"`
	NoiseFloor float64       `json:"noise_floor"`

	// FFTHFRatio is only set in verify mode
	FFTHFRatio *float64 `json:"fft_hf_ratio,omitempty"`
}

// Summary aggregates per-block statistics
type Summary struct {
	MeanEnergy      float64        `json:"mean_energy"`
	StdDevEnergy    float64        `json:"stddev_energy"`
	P95Energy       float64        `json:"p95_energy"`
	PeakEnergy      float64        `json:"peak_energy"`
	PeakLevelDB     float64        `json:"peak_level_db"`
	FinalNoiseFloor float64        `json:"final_noise_floor"`
	Stages          map[string]int `json:"stages"`
}

// Report is the outcome of scanning one source
type Report struct {
	Source     string        `json:"source"`
	SessionID  string        `json:"session_id"`
	SampleRate int           `json:"sample_rate"`
	BlockSize  int           `json:"block_size"`
	Blocks     int           `json:"blocks"`
	Duration   time.Duration `json:"duration"`
	Events     []Event       `json:"events"`
	Summary    Summary       `json:"summary"`

	// VerifyMismatches counts detections whose FFT ratio disagreed with
	// the direct transform
	VerifyMismatches int `json:"verify_mismatches,omitempty"`
}

// Scanner scans audio sources with one detector configuration
type Scanner struct {
	config  *config.DetectorConfig
	decoder *transcode.Decoder
	fft     *spectral.FFT
	verify  bool
	logger  logging.Logger

	// dcCutoff enables a DC blocking pre-filter when positive
	dcCutoff float64
}

// Option customises a Scanner
type Option func(*Scanner)

// WithVerify recomputes the high-band ratio of every detection with a full
// FFT and records disagreements
func WithVerify(verify bool) Option {
	return func(s *Scanner) {
		s.verify = verify
	}
}

// WithDCBlock high-passes the audio at cutoffHz before detection, for
// sources with a DC offset. Zero disables it.
func WithDCBlock(cutoffHz float64) Option {
	return func(s *Scanner) {
		s.dcCutoff = max(cutoffHz, 0)
	}
}

// WithDecoder replaces the default decoder
func WithDecoder(decoder *transcode.Decoder) Option {
	return func(s *Scanner) {
		if decoder != nil {
			s.decoder = decoder
		}
	}
}

// WithLogger sets the scanner logger
func WithLogger(logger logging.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScanner validates cfg and creates a scanner
func NewScanner(cfg *config.DetectorConfig, opts ...Option) (*Scanner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	decoderConfig := transcode.DefaultDecoderConfig()
	decoderConfig.TargetSampleRate = cfg.SampleRate

	s := &Scanner{
		config:  cfg,
		decoder: transcode.NewDecoder(decoderConfig),
		fft:     spectral.NewFFT(),
		logger:  logging.GetGlobalLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.logger = s.logger.WithFields(logging.Fields{"component": "clap_scanner"})

	return s, nil
}

// ScanFile decodes filename and scans it
func (s *Scanner) ScanFile(ctx context.Context, filename string) (*Report, error) {
	data, err := s.decoder.DecodeFile(ctx, filename)
	if err != nil {
		return nil, err
	}
	return s.ScanSamples(ctx, filename, data.PCM, data.SampleRate)
}

// ScanSamples scans mono samples at sampleRate. The trailing partial block
// is not analysed.
func (s *Scanner) ScanSamples(ctx context.Context, source string, samples []float64, sampleRate int) (*Report, error) {
	run, err := s.newRun(source, sampleRate)
	if err != nil {
		return nil, err
	}

	assembler := common.NewBlockAssembler(s.config.BlockSize)
	err = assembler.Each(samples, func(block []float64) error {
		return run.process(ctx, block)
	})
	if err != nil {
		return nil, err
	}

	return run.finish(), nil
}

// ScanRawFloat32 scans a stream of mono float32 little-endian samples, such
// as `ffmpeg -f f32le -ac 1 -` or a capture pipe, until EOF
func (s *Scanner) ScanRawFloat32(ctx context.Context, source string, r io.Reader, sampleRate int) (*Report, error) {
	run, err := s.newRun(source, sampleRate)
	if err != nil {
		return nil, err
	}

	assembler := common.NewBlockAssembler(s.config.BlockSize)
	chunk := make([]byte, rawChunkBytes)
	pending := 0
	var samples []float64

	for {
		n, readErr := readContext(ctx, r, chunk[pending:])
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pending += n

		var consumed int
		samples, consumed = transcode.Float32LEToFloat64(samples[:0], chunk[:pending])
		pending = copy(chunk, chunk[consumed:pending])

		for _, block := range assembler.AddSamples(samples) {
			if err := run.process(ctx, block); err != nil {
				return nil, err
			}
		}

		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("failed to read %s: %w", source, readErr)
		}
	}

	if assembler.Pending() > 0 {
		s.logger.Debug("Dropped trailing partial block", logging.Fields{
			"source":  source,
			"samples": assembler.Pending(),
		})
	}

	return run.finish(), nil
}

// readContext reads into buf unless ctx ends first. An idle capture pipe
// blocks Read indefinitely, so the read runs in its own goroutine; after a
// cancellation that goroutine finishes whenever the reader returns and its
// result is dropped. buf must not be reused after a cancelled read.
func readContext(ctx context.Context, r io.Reader, buf []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := r.Read(buf)
		done <- result{n, err}
	}()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-done:
		return res.n, res.err
	}
}

// run carries the state of one scan
type run struct {
	scanner  *Scanner
	session  *detector.Session
	report   *Report
	energies []float64
	dc       *filters.DCBlocker
	logger   logging.Logger
}

func (s *Scanner) newRun(source string, sampleRate int) (*run, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: got %d", detector.ErrInvalidSampleRate, sampleRate)
	}

	session, err := detector.NewSession(s.config, detector.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}

	logger := s.logger.WithFields(logging.Fields{
		"source":     source,
		"session_id": session.ID(),
	})
	logger.Debug("Scan started", logging.Fields{
		"sample_rate": sampleRate,
		"block_size":  s.config.BlockSize,
		"verify":      s.verify,
		"dc_cutoff":   s.dcCutoff,
	})

	var dc *filters.DCBlocker
	if s.dcCutoff > 0 {
		dc = filters.NewDCBlockerWithCutoff(sampleRate, s.dcCutoff)
	}

	return &run{
		scanner: s,
		session: session,
		dc:      dc,
		report: &Report{
			Source:     source,
			SessionID:  session.ID(),
			SampleRate: sampleRate,
			BlockSize:  s.config.BlockSize,
			Events:     []Event{},
			Summary:    Summary{Stages: make(map[string]int)},
		},
		logger: logger,
	}, nil
}

func (r *run) process(ctx context.Context, samples []float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Non-finite samples would poison the filter memory
	if r.dc != nil && common.AllFinite(samples) {
		r.dc.ProcessInPlace(samples)
	}

	block := detector.NewAudioBlock(samples, r.report.SampleRate)
	before := r.session.State()

	result, err := r.session.Process(block)
	if err != nil {
		// Non-finite samples only spoil their own block
		if errors.Is(err, detector.ErrNonFiniteSample) {
			r.report.Summary.Stages[result.Stage.String()]++
			r.report.Blocks++
			return nil
		}
		return err
	}

	index := r.report.Blocks
	r.report.Blocks++
	r.report.Summary.Stages[result.Stage.String()]++
	if result.Stage != detector.StageInvalid {
		r.energies = append(r.energies, result.Energy)
	}

	if !result.Detected {
		return nil
	}

	event := Event{
		Block:      index,
		Offset:     time.Duration(index*r.report.BlockSize) * time.Second / time.Duration(r.report.SampleRate),
		Energy:     result.Energy,
		HFRatio:    result.HFRatio,
		NoiseFloor: before.NoiseFloor,
	}

	if r.scanner.verify {
		fftRatio := r.scanner.fft.HighFrequencyRatio(samples)
		event.FFTHFRatio = &fftRatio
		if math.Abs(fftRatio-result.HFRatio) > verifyTolerance {
			r.report.VerifyMismatches++
			r.logger.Warn("FFT band ratio disagrees with direct transform", logging.Fields{
				"block":        index,
				"hf_ratio":     result.HFRatio,
				"fft_hf_ratio": fftRatio,
			})
		}
	}

	r.report.Events = append(r.report.Events, event)
	return nil
}

func (r *run) finish() *Report {
	report := r.report
	if report.SampleRate > 0 {
		report.Duration = time.Duration(report.Blocks*report.BlockSize) * time.Second / time.Duration(report.SampleRate)
	}

	summary := &report.Summary
	summary.MeanEnergy = common.Mean(r.energies)
	summary.StdDevEnergy = common.StandardDeviation(r.energies)
	summary.P95Energy = common.Percentile(r.energies, 0.95)
	summary.PeakEnergy = common.Max(r.energies)
	summary.FinalNoiseFloor = r.session.State().NoiseFloor
	if summary.PeakEnergy > 0 {
		summary.PeakLevelDB = temporal.ComputeLogEnergy([]float64{summary.PeakEnergy}, 1e-6)[0]
	}

	r.logger.Info("Scan completed", logging.Fields{
		"blocks":      report.Blocks,
		"claps":       len(report.Events),
		"mean_energy": summary.MeanEnergy,
		"final_floor": summary.FinalNoiseFloor,
	})

	return report
}
