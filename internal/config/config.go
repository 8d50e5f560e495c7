// Package config loads nvencoder settings from nvencoder.yaml and
// NVENCODER_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/nvencoder/internal/logging"
	"github.com/aretw0/nvencoder/pkg/domain"
	"github.com/aretw0/nvencoder/pkg/encoder"
	"github.com/aretw0/nvencoder/pkg/ffmpeg"
)

// FileNames are looked up in the config directory, in order.
var FileNames = []string{"nvencoder.yaml", "nvencoder.yml"}

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

const (
	minBitrate = 1
	maxBitrate = 200
)

// Config is the resolved application configuration.
type Config struct {
	OutputDir        string            `mapstructure:"output_dir"`
	TempDir          string            `mapstructure:"temp_dir"`
	BitrateMbps      int               `mapstructure:"bitrate_mbps"`
	Lossless         bool              `mapstructure:"lossless"`
	Force10Bit       bool              `mapstructure:"force_10bit"`
	AutoCrop         bool              `mapstructure:"auto_crop"`
	Resolution       domain.Resolution `mapstructure:"resolution"`
	SubtitleKeyword  string            `mapstructure:"subtitle_keyword"`
	ProgressInterval time.Duration     `mapstructure:"progress_interval"`
	LogLevel         string            `mapstructure:"log_level"`
	MetricsAddr      string            `mapstructure:"metrics_addr"`

	Crop     CropConfig            `mapstructure:"crop"`
	Store    StoreConfig           `mapstructure:"store"`
	Settings domain.EncodeSettings `mapstructure:"settings"`
}

// CropConfig tunes black bar detection.
type CropConfig struct {
	Seconds int `mapstructure:"seconds"`
	Limit   int `mapstructure:"limit"`
}

// StoreConfig selects where results are recorded.
type StoreConfig struct {
	Backend       string        `mapstructure:"backend"`
	Dir           string        `mapstructure:"dir"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	RedisPrefix   string        `mapstructure:"redis_prefix"`
	TTL           time.Duration `mapstructure:"ttl"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BitrateMbps:      encoder.DefaultBitrateMbps,
		SubtitleKeyword:  ffmpeg.DefaultSubtitleKeyword,
		ProgressInterval: encoder.DefaultProgressInterval,
		LogLevel:         "info",
		Crop:             CropConfig{Seconds: 30, Limit: 24},
		Store: StoreConfig{
			Backend:   StoreFile,
			RedisAddr: "localhost:6379",
		},
		Settings: encoder.DefaultSettings(),
	}
}

// Load reads the first config file found in dir over the defaults, then
// applies environment overrides and validates the result. A missing file
// is not an error.
func Load(dir string) (Config, error) {
	cfg := Default()

	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := decodeFile(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		break
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeFile(data []byte, cfg *Config) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			resolutionHook,
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// resolutionHook accepts "WxH" strings for Resolution fields.
func resolutionHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(domain.Resolution{}) || from.Kind() != reflect.String {
		return data, nil
	}
	return ParseResolution(data.(string))
}

// ParseResolution parses "WxH". An empty string or "source" is the zero
// resolution, meaning the source size is kept.
func ParseResolution(s string) (domain.Resolution, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "source" {
		return domain.Resolution{}, nil
	}
	ws, hs, ok := strings.Cut(s, "x")
	if !ok {
		return domain.Resolution{}, fmt.Errorf("resolution %q must look like 1280x720", s)
	}
	w, errW := strconv.Atoi(ws)
	h, errH := strconv.Atoi(hs)
	if errW != nil || errH != nil {
		return domain.Resolution{}, fmt.Errorf("resolution %q must look like 1280x720", s)
	}
	if w < ffmpeg.MinDimension || h < ffmpeg.MinDimension || w > ffmpeg.MaxWidth || h > ffmpeg.MaxHeight {
		return domain.Resolution{}, fmt.Errorf("resolution %q outside %dx%d..%dx%d",
			s, ffmpeg.MinDimension, ffmpeg.MinDimension, ffmpeg.MaxWidth, ffmpeg.MaxHeight)
	}
	return domain.Resolution{Width: w - w%2, Height: h - h%2}, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if c.BitrateMbps < minBitrate || c.BitrateMbps > maxBitrate {
		return fmt.Errorf("bitrate_mbps must be between %d and %d", minBitrate, maxBitrate)
	}
	if c.Crop.Seconds <= 0 {
		return fmt.Errorf("crop.seconds must be greater than 0")
	}
	if c.Crop.Limit < 0 || c.Crop.Limit > 255 {
		return fmt.Errorf("crop.limit must be between 0 and 255")
	}
	if c.ProgressInterval < 0 {
		return fmt.Errorf("progress_interval must not be negative")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.Store.Backend {
	case StoreMemory, StoreFile:
	case StoreRedis:
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("store.backend must be one of %s, %s, %s", StoreMemory, StoreFile, StoreRedis)
	}
	if c.Store.TTL < 0 {
		return fmt.Errorf("store.ttl must not be negative")
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug", "info", "success", "warn", "warning", "error":
		return logging.ParseLevel(c.LogLevel), nil
	}
	return 0, fmt.Errorf("log_level %q must be one of debug, info, success, warn, error", c.LogLevel)
}

// CropOptions converts the crop section.
func (c Config) CropOptions() ffmpeg.CropOptions {
	return ffmpeg.CropOptions{Seconds: c.Crop.Seconds, Limit: c.Crop.Limit}
}
