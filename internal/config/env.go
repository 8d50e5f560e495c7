package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NVENCODER_"

func applyEnv(c *Config) error {
	var err error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}
	str("OUTPUT_DIR", &c.OutputDir)
	str("TEMP_DIR", &c.TempDir)
	str("SUBTITLE_KEYWORD", &c.SubtitleKeyword)
	str("LOG_LEVEL", &c.LogLevel)
	str("METRICS_ADDR", &c.MetricsAddr)
	str("STORE", &c.Store.Backend)
	str("STORE_DIR", &c.Store.Dir)
	str("REDIS_ADDR", &c.Store.RedisAddr)
	str("REDIS_PASSWORD", &c.Store.RedisPassword)
	str("REDIS_PREFIX", &c.Store.RedisPrefix)

	if c.BitrateMbps, err = readInt("BITRATE_MBPS", c.BitrateMbps, minBitrate, maxBitrate); err != nil {
		return err
	}
	if c.Store.RedisDB, err = readInt("REDIS_DB", c.Store.RedisDB, 0, 15); err != nil {
		return err
	}
	if c.Crop.Seconds, err = readInt("CROP_SECONDS", c.Crop.Seconds, 1, 600); err != nil {
		return err
	}
	if c.Lossless, err = readBool("LOSSLESS", c.Lossless); err != nil {
		return err
	}
	if c.Force10Bit, err = readBool("FORCE_10BIT", c.Force10Bit); err != nil {
		return err
	}
	if c.AutoCrop, err = readBool("AUTO_CROP", c.AutoCrop); err != nil {
		return err
	}
	if c.ProgressInterval, err = readDuration("PROGRESS_INTERVAL", c.ProgressInterval); err != nil {
		return err
	}
	if c.Store.TTL, err = readDuration("RESULT_TTL", c.Store.TTL); err != nil {
		return err
	}
	if v, ok := os.LookupEnv(EnvPrefix + "RESOLUTION"); ok {
		if c.Resolution, err = ParseResolution(v); err != nil {
			return fmt.Errorf("%sRESOLUTION: %w", EnvPrefix, err)
		}
	}
	return nil
}

func readInt(key string, fallback, min, max int) (int, error) {
	raw, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s%s must be an integer: %w", EnvPrefix, key, err)
	}
	if parsed < min || parsed > max {
		return 0, fmt.Errorf("%s%s must be between %d and %d", EnvPrefix, key, min, max)
	}
	return parsed, nil
}

func readBool(key string, fallback bool) (bool, error) {
	raw, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s%s must be a boolean: %w", EnvPrefix, key, err)
	}
	return parsed, nil
}

func readDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s%s must be a valid duration: %w", EnvPrefix, key, err)
	}
	if parsed < 0 {
		return 0, fmt.Errorf("%s%s must not be negative", EnvPrefix, key)
	}
	return parsed, nil
}
