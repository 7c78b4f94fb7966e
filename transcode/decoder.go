package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-clap/logging"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var (
	ErrInvalidWAV        = errors.New("not a valid WAV file")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrNoSamples         = errors.New("no audio samples decoded")
)

// wavFormatPCM is the WAVE_FORMAT_PCM format tag
const wavFormatPCM = 1

// AudioData represents decoded mono audio
type AudioData struct {
	PCM        []float64       `json:"-"` // mono samples in [-1, 1]
	SampleRate int             `json:"sample_rate"`
	Duration   time.Duration   `json:"duration"`
	Metadata   *StreamMetadata `json:"metadata,omitempty"`
}

// StreamMetadata describes the source the audio was decoded from
type StreamMetadata struct {
	Path           string    `json:"path"`
	Decoder        string    `json:"decoder"` // "wav" or "ffmpeg"
	SourceChannels int       `json:"source_channels,omitempty"`
	BitDepth       int       `json:"bit_depth,omitempty"`
	Truncated      bool      `json:"truncated,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	TargetSampleRate int           `json:"target_sample_rate"` // ffmpeg output rate; WAV keeps its own
	MaxDuration      time.Duration `json:"max_duration"`       // 0 means no limit
	FFmpegPath       string        `json:"ffmpeg_path"`
	Timeout          time.Duration `json:"timeout"` // for ffmpeg runs
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate: 22050,
		MaxDuration:      0,
		FFmpegPath:       "ffmpeg", // Assume in PATH
		Timeout:          60 * time.Second,
	}
}

// Decoder turns audio files into mono float PCM. PCM WAV files are decoded
// in-process; anything else is handed to ffmpeg.
type Decoder struct {
	config *DecoderConfig
	logger logging.Logger
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "audio_decoder",
		}),
	}
}

// ValidateConfig validates the decoder configuration
func (d *Decoder) ValidateConfig() error {
	if d.config.TargetSampleRate <= 0 {
		return fmt.Errorf("target sample rate must be positive: %d", d.config.TargetSampleRate)
	}
	if d.config.MaxDuration < 0 {
		return fmt.Errorf("max duration must not be negative: %v", d.config.MaxDuration)
	}
	if d.config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive: %v", d.config.Timeout)
	}
	return nil
}

// DecodeFile decodes an audio file and returns mono PCM data
func (d *Decoder) DecodeFile(ctx context.Context, filename string) (*AudioData, error) {
	logger := d.logger.WithFields(logging.Fields{
		"function": "DecodeFile",
		"filename": filename,
	})

	if strings.EqualFold(filepath.Ext(filename), ".wav") {
		f, err := os.Open(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", filename, err)
		}
		defer f.Close()

		data, err := d.DecodeWAV(f)
		if err == nil {
			data.Metadata.Path = filename
			return data, nil
		}
		if !errors.Is(err, ErrUnsupportedFormat) {
			return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
		}

		logger.Debug("WAV encoding not handled in-process, falling back to ffmpeg", logging.Fields{
			"reason": err.Error(),
		})
	}

	return d.decodeWithFFmpeg(ctx, filename, logger)
}

// DecodeWAV decodes integer PCM WAV data, normalising to [-1, 1] and mixing
// down to mono
func (d *Decoder) DecodeWAV(r io.ReadSeeker) (*AudioData, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidWAV
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: WAV format tag %d", ErrUnsupportedFormat, dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read PCM data: %w", err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, ErrNoSamples
	}

	samples, err := intBufferToFloat(buf)
	if err != nil {
		return nil, err
	}

	channels := buf.Format.NumChannels
	data := d.newAudioData(Downmix(samples, channels), buf.Format.SampleRate)
	data.Metadata.Decoder = "wav"
	data.Metadata.SourceChannels = channels
	data.Metadata.BitDepth = buf.SourceBitDepth

	d.logger.Debug("WAV decode completed", logging.Fields{
		"sample_rate": data.SampleRate,
		"channels":    channels,
		"bit_depth":   buf.SourceBitDepth,
		"samples":     len(data.PCM),
		"duration":    data.Duration.Seconds(),
	})

	return data, nil
}

// intBufferToFloat scales integer PCM of the buffer's source bit depth into
// [-1, 1]. 8-bit WAV is unsigned and is re-centred first.
func intBufferToFloat(buf *audio.IntBuffer) ([]float64, error) {
	bitDepth := buf.SourceBitDepth
	if bitDepth < 8 || bitDepth > 32 || bitDepth%8 != 0 {
		return nil, fmt.Errorf("%w: %d-bit PCM", ErrUnsupportedFormat, bitDepth)
	}

	offset := 0
	if bitDepth == 8 {
		offset = 128
	}
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))

	out := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = float64(v-offset) * scale
	}
	return out, nil
}

// Downmix averages interleaved channels into mono. A trailing incomplete
// frame is dropped.
func Downmix(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		return interleaved
	}

	frames := len(interleaved) / channels
	mono := make([]float64, frames)
	for i := range frames {
		sum := 0.0
		for c := range channels {
			sum += interleaved[i*channels+c]
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}

// decodeWithFFmpeg asks ffmpeg for mono float64 little-endian PCM at the
// target sample rate
func (d *Decoder) decodeWithFFmpeg(ctx context.Context, filename string, logger logging.Logger) (*AudioData, error) {
	args := d.buildFFmpegArgs(filename)

	ctx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, d.config.FFmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Debug("Running FFmpeg decode", logging.Fields{
		"command": fmt.Sprintf("%s %s", d.config.FFmpegPath, strings.Join(args, " ")),
		"timeout": d.config.Timeout.Seconds(),
	})

	startTime := time.Now()
	output, err := cmd.Output()
	if err != nil {
		logger.Error(err, "FFmpeg decode failed", logging.Fields{
			"stderr": stderr.String(),
		})
		return nil, fmt.Errorf("ffmpeg decode failed: %w, stderr: %s", err, stderr.String())
	}

	samples := bytesToFloat64(output)
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	data := d.newAudioData(samples, d.config.TargetSampleRate)
	data.Metadata.Path = filename
	data.Metadata.Decoder = "ffmpeg"

	logger.Debug("FFmpeg decode completed", logging.Fields{
		"samples":     len(data.PCM),
		"duration":    data.Duration.Seconds(),
		"decode_time": time.Since(startTime).Seconds(),
	})

	return data, nil
}

func (d *Decoder) buildFFmpegArgs(filename string) []string {
	args := []string{
		"-v", "error",
		"-i", filename,
	}

	if d.config.MaxDuration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.3f", d.config.MaxDuration.Seconds()))
	}

	return append(args,
		"-vn",
		"-map", "0:a:0",
		"-f", "f64le",
		"-ac", "1",
		"-ar", strconv.Itoa(d.config.TargetSampleRate),
		"pipe:1",
	)
}

// newAudioData wraps mono samples, applying MaxDuration
func (d *Decoder) newAudioData(samples []float64, sampleRate int) *AudioData {
	truncated := false
	if d.config.MaxDuration > 0 && sampleRate > 0 {
		limit := int(d.config.MaxDuration.Seconds() * float64(sampleRate))
		if limit < len(samples) {
			samples = samples[:limit]
			truncated = true
		}
	}

	var duration time.Duration
	if sampleRate > 0 {
		duration = time.Duration(len(samples)) * time.Second / time.Duration(sampleRate)
	}

	return &AudioData{
		PCM:        samples,
		SampleRate: sampleRate,
		Duration:   duration,
		Metadata: &StreamMetadata{
			Truncated: truncated,
			Timestamp: time.Now(),
		},
	}
}

// bytesToFloat64 converts raw float64 little-endian bytes to []float64
func bytesToFloat64(data []byte) []float64 {
	if len(data)%8 != 0 {
		// Trim to multiple of 8 bytes
		data = data[:len(data)-(len(data)%8)]
	}

	if len(data) == 0 {
		return nil
	}

	sampleCount := len(data) / 8
	samples := make([]float64, sampleCount)

	for i := range sampleCount {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}

	return samples
}

// Float32LEToFloat64 converts raw float32 little-endian bytes, the format
// most capture pipes emit, appending to dst. Trailing partial samples are
// ignored; the number of bytes consumed is returned.
func Float32LEToFloat64(dst []float64, data []byte) ([]float64, int) {
	n := len(data) / 4
	for i := range n {
		bits := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
		dst = append(dst, float64(math.Float32frombits(bits)))
	}
	return dst, n * 4
}
