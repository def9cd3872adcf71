// Package config provides configuration loading and validation for the
// safaristats pipelines.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidSegmentSize    = errors.New("camera sorter segment size must be positive")
	ErrInvalidCapacityLimit  = errors.New("user batcher capacity limit must be positive")
	ErrInvalidFillRatio      = errors.New("user batcher max fill ratio must be in (0, 1]")
	ErrInvalidLogDir         = errors.New("log directory must be set")
	ErrInvalidSerializeDir   = errors.New("camera serialization directory must be set")
	ErrInvalidSavedFSTDir    = errors.New("saved FST directory must be set")
	ErrInvalidOutDir         = errors.New("output directory must be set")
	ErrInvalidReaderBuffer   = errors.New("log reader buffer size must be positive")
	ErrInvalidDailyBuffer    = errors.New("camera daily binary buffer size must be positive")
	ErrInvalidFinalBuffer    = errors.New("final text writer buffer size must be positive")
	ErrInvalidFlushThreshold = errors.New("final text writer flush threshold must be positive and smaller than its buffer")
)

// Config holds all configuration for the safaristats pipelines.
type Config struct {
	Paths  PathsConfig  `mapstructure:"paths"`
	Camera CameraConfig `mapstructure:"camera"`
	User   UserConfig   `mapstructure:"user"`
	Buffer BufferConfig `mapstructure:"buffer"`
	Log    LogConfig    `mapstructure:"log"`
}

// PathsConfig holds the directories the pipelines read from and write to.
type PathsConfig struct {
	// LogDir is where daily safari-sessions-YYYYMMDD.log files live.
	LogDir string `mapstructure:"log_dir"`
	// SerializationDir is where the camera pipeline's daily binary
	// summaries live.
	SerializationDir string `mapstructure:"serialization_dir"`
	// SavedFSTDir is where the user pipeline's daily FST sets live.
	SavedFSTDir string `mapstructure:"saved_fst_dir"`
	// OutDir is where both pipelines write their final text reports.
	OutDir string `mapstructure:"out_dir"`
}

// CameraConfig tunes the CAM-TOP100 external-sort pipeline.
type CameraConfig struct {
	// SegmentSize is the in-memory record count before the external
	// sorter spills a sorted run to disk.
	SegmentSize int `mapstructure:"segment_size"`
}

// UserConfig tunes the USER-TOP10 batching pipeline.
type UserConfig struct {
	// CapacityLimit is the in-memory batch size that triggers a
	// sort-dedup collapse; the collapsed batch is spilled only if it
	// still reaches MaxFillRatioAfterCollect of this limit.
	CapacityLimit int `mapstructure:"capacity_limit"`
	// MaxFillRatioAfterCollect is the fraction of CapacityLimit a
	// collapsed batch may still occupy before it is spilled anyway.
	MaxFillRatioAfterCollect float64 `mapstructure:"max_fill_ratio_after_collect"`
}

// BufferConfig holds the I/O buffer sizes named in the design.
type BufferConfig struct {
	LogReaderBytes        int `mapstructure:"log_reader_bytes"`
	CameraDailyBytes      int `mapstructure:"camera_daily_bytes"`
	FinalTextBytes        int `mapstructure:"final_text_bytes"`
	FinalTextFlushMargin  int `mapstructure:"final_text_flush_margin"`
}

// LogConfig holds structured-logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("safaristats")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/safaristats")
	}

	viperCfg.SetEnvPrefix("SAFARISTATS")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("read config file: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&cfg)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("paths.log_dir", DefaultLogDir)
	viperCfg.SetDefault("paths.serialization_dir", DefaultSerializationDir)
	viperCfg.SetDefault("paths.saved_fst_dir", DefaultSavedFSTDir)
	viperCfg.SetDefault("paths.out_dir", DefaultOutDir)

	viperCfg.SetDefault("camera.segment_size", DefaultCameraSegmentSize)

	viperCfg.SetDefault("user.capacity_limit", DefaultUserCapacityLimit)
	viperCfg.SetDefault("user.max_fill_ratio_after_collect", DefaultUserMaxFillRatio)

	viperCfg.SetDefault("buffer.log_reader_bytes", DefaultLogReaderBufferBytes)
	viperCfg.SetDefault("buffer.camera_daily_bytes", DefaultCameraDailyBufferBytes)
	viperCfg.SetDefault("buffer.final_text_bytes", DefaultFinalTextBufferBytes)
	viperCfg.SetDefault("buffer.final_text_flush_margin", DefaultFinalTextFlushMargin)

	viperCfg.SetDefault("log.level", "info")
	viperCfg.SetDefault("log.format", "json")
}

// validateConfig validates the configuration.
func validateConfig(cfg *Config) error {
	if cfg.Paths.LogDir == "" {
		return ErrInvalidLogDir
	}

	if cfg.Paths.SerializationDir == "" {
		return ErrInvalidSerializeDir
	}

	if cfg.Paths.SavedFSTDir == "" {
		return ErrInvalidSavedFSTDir
	}

	if cfg.Paths.OutDir == "" {
		return ErrInvalidOutDir
	}

	if cfg.Camera.SegmentSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSegmentSize, cfg.Camera.SegmentSize)
	}

	if cfg.User.CapacityLimit <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCapacityLimit, cfg.User.CapacityLimit)
	}

	if cfg.User.MaxFillRatioAfterCollect <= 0 || cfg.User.MaxFillRatioAfterCollect > 1 {
		return fmt.Errorf("%w: %f", ErrInvalidFillRatio, cfg.User.MaxFillRatioAfterCollect)
	}

	if cfg.Buffer.LogReaderBytes <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidReaderBuffer, cfg.Buffer.LogReaderBytes)
	}

	if cfg.Buffer.CameraDailyBytes <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDailyBuffer, cfg.Buffer.CameraDailyBytes)
	}

	if cfg.Buffer.FinalTextBytes <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFinalBuffer, cfg.Buffer.FinalTextBytes)
	}

	if cfg.Buffer.FinalTextFlushMargin <= 0 || cfg.Buffer.FinalTextFlushMargin >= cfg.Buffer.FinalTextBytes {
		return fmt.Errorf("%w: %d", ErrInvalidFlushThreshold, cfg.Buffer.FinalTextFlushMargin)
	}

	return nil
}
