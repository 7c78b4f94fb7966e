// Command clapscan runs the clap detector over audio files and prints the
// claps it finds.
//
// Usage:
//
//	clapscan [flags] file.wav [file.mp3 ...]
//	ffmpeg -i in.mp3 -f f32le -ac 1 -ar 22050 - | clapscan [flags] -
//
// "-" reads raw mono float32 little-endian samples from stdin at the
// configured sample rate. Settings come from the defaults, then -preset,
// then -config, then CLAP_* variables (a .env file in the working directory
// is loaded first), then -env, then -block and -rate.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RyanBlaney/sonido-clap/detector/config"
	"github.com/RyanBlaney/sonido-clap/logging"
	"github.com/RyanBlaney/sonido-clap/scan"
	"github.com/joho/godotenv"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "", "JSON detector config file")
		envPath    = flag.String("env", "", "dotenv file with CLAP_* overrides")
		preset     = flag.String("preset", "", "environment preset: quiet, office, noisy")
		blockSize  = flag.Int("block", 0, "block size in samples (overrides config)")
		sampleRate = flag.Int("rate", 0, "sample rate for stdin and ffmpeg decoding (overrides config)")
		verify     = flag.Bool("verify", false, "cross-check detections with a full FFT")
		dcCutoff   = flag.Float64("dc-cutoff", 0, "high-pass cutoff in Hz to strip DC offset, 0 disables")
		asJSON     = flag.Bool("json", false, "print reports as JSON")
		logLevel   = flag.String("log-level", "warn", "debug, info, warn or error")
	)
	flag.Parse()

	// A missing .env is fine
	_ = godotenv.Load()

	logger := logging.NewDefaultLogger()
	logger.SetLevel(logging.ParseLevel(*logLevel))
	logging.SetGlobalLogger(logger)

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: clapscan [flags] file|- ...")
		flag.PrintDefaults()
		return 2
	}

	cfg, err := loadConfig(configSources{
		preset:     *preset,
		configPath: *configPath,
		envPath:    *envPath,
		blockSize:  *blockSize,
		sampleRate: *sampleRate,
	})
	if err != nil {
		logger.Error(err, "Failed to load configuration")
		return 1
	}

	scanner, err := scan.NewScanner(cfg, scan.WithVerify(*verify), scan.WithDCBlock(*dcCutoff))
	if err != nil {
		logger.Error(err, "Invalid configuration")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	status := 0
	for _, source := range flag.Args() {
		var report *scan.Report
		if source == "-" {
			report, err = scanner.ScanRawFloat32(ctx, "stdin", os.Stdin, cfg.SampleRate)
		} else {
			report, err = scanner.ScanFile(ctx, source)
		}
		if err != nil {
			logger.Error(err, "Scan failed", logging.Fields{"source": source})
			status = 1
			continue
		}

		if *asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				logger.Error(err, "Failed to encode report")
				return 1
			}
		} else {
			printReport(report)
		}
	}

	return status
}

// configSources names every place a setting can come from. Later sources
// win: defaults, preset, JSON file, process env, env file, then flags.
type configSources struct {
	preset     string
	configPath string
	envPath    string
	blockSize  int // 0 keeps the configured value
	sampleRate int // 0 keeps the configured value
}

func loadConfig(src configSources) (*config.DetectorConfig, error) {
	cfg := config.DefaultDetectorConfig()
	if src.preset != "" {
		cfg = config.EnvironmentOptimizedConfig(config.Environment(src.preset))
	}

	if src.configPath != "" {
		if err := config.LoadInto(cfg, src.configPath); err != nil {
			return nil, err
		}
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	if src.envPath != "" {
		if err := config.ApplyEnvFile(cfg, src.envPath); err != nil {
			return nil, err
		}
	}

	if src.blockSize > 0 {
		cfg.BlockSize = src.blockSize
	}
	if src.sampleRate > 0 {
		cfg.SampleRate = src.sampleRate
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printReport(r *scan.Report) {
	fmt.Printf("%s: %d claps in %d blocks (%.2fs @ %d Hz, block %d)\n",
		r.Source, len(r.Events), r.Blocks, r.Duration.Seconds(), r.SampleRate, r.BlockSize)

	for _, e := range r.Events {
		line := fmt.Sprintf("  %8.3fs  block %-6d energy %7.2f  hf %.3f  floor %.2f",
			e.Offset.Seconds(), e.Block, e.Energy, e.HFRatio, e.NoiseFloor)
		if e.FFTHFRatio != nil {
			line += fmt.Sprintf("  fft %.3f", *e.FFTHFRatio)
		}
		fmt.Println(line)
	}

	s := r.Summary
	fmt.Printf("  energy mean %.2f sd %.2f p95 %.2f peak %.2f (%.1f dB)  final floor %.2f\n",
		s.MeanEnergy, s.StdDevEnergy, s.P95Energy, s.PeakEnergy, s.PeakLevelDB, s.FinalNoiseFloor)
	fmt.Printf("  stages %v\n", s.Stages)
	if r.VerifyMismatches > 0 {
		fmt.Printf("  %d FFT verification mismatches\n", r.VerifyMismatches)
	}
}
