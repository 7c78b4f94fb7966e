package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/RyanBlaney/sonido-clap/detector/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Precedence(t *testing.T) {
	jsonPath := writeFile(t, "clap.json", `{"threshold": 30, "block_size": 1024}`)
	envPath := writeFile(t, "clap.env", "CLAP_THRESHOLD=40\nCLAP_SAMPLE_RATE=16000\n")

	tests := []struct {
		name          string
		src           configSources
		env           map[string]string
		wantThreshold float64
		wantAlpha     float64
		wantBlock     int
		wantRate      int
	}{
		{
			name:          "defaults",
			wantThreshold: 15, wantAlpha: 0.02, wantBlock: 512, wantRate: 22050,
		},
		{
			name:          "preset over defaults",
			src:           configSources{preset: "noisy"},
			wantThreshold: 25, wantAlpha: 0.05, wantBlock: 512, wantRate: 22050,
		},
		{
			name:          "file over preset",
			src:           configSources{preset: "noisy", configPath: jsonPath},
			wantThreshold: 30, wantAlpha: 0.05, wantBlock: 1024, wantRate: 22050,
		},
		{
			name:          "process env over file",
			src:           configSources{preset: "noisy", configPath: jsonPath},
			env:           map[string]string{config.EnvThreshold: "35"},
			wantThreshold: 35, wantAlpha: 0.05, wantBlock: 1024, wantRate: 22050,
		},
		{
			name:          "env file over process env",
			src:           configSources{preset: "noisy", configPath: jsonPath, envPath: envPath},
			env:           map[string]string{config.EnvThreshold: "35"},
			wantThreshold: 40, wantAlpha: 0.05, wantBlock: 1024, wantRate: 16000,
		},
		{
			name:          "flags over everything",
			src:           configSources{preset: "noisy", configPath: jsonPath, envPath: envPath, blockSize: 256, sampleRate: 48000},
			wantThreshold: 40, wantAlpha: 0.05, wantBlock: 256, wantRate: 48000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := loadConfig(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.wantThreshold, cfg.Threshold)
			assert.Equal(t, tt.wantAlpha, cfg.NoiseAlpha)
			assert.Equal(t, tt.wantBlock, cfg.BlockSize)
			assert.Equal(t, tt.wantRate, cfg.SampleRate)
		})
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := loadConfig(configSources{configPath: writeFile(t, "bad.json", `{"hf_ratio_min": 2}`)})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = loadConfig(configSources{configPath: filepath.Join(t.TempDir(), "missing.json")})
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = loadConfig(configSources{envPath: filepath.Join(t.TempDir(), "missing.env")})
	assert.Error(t, err)

	t.Setenv(config.EnvBlockSize, "big")
	_, err = loadConfig(configSources{})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
