package gcp

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

type StorageMode string

const (
	StorageModeGCS         StorageMode = "gcs"
	StorageModeGCSEmulator StorageMode = "gcs_emulator"
)

// StorageConfig selects the object store backend and names the three buckets the pipeline
// writes to.
type StorageConfig struct {
	Mode         StorageMode
	EmulatorHost string
	// ModeInferred is set when no mode was configured and the emulator host decided it.
	ModeInferred bool

	TranscriptsBucket string
	SentimentBucket   string
	AudioBucket       string
}

func (cfg StorageConfig) IsEmulator() bool { return cfg.Mode == StorageModeGCSEmulator }

type StorageConfigErrorCode string

const (
	StorageConfigErrorInvalidMode         StorageConfigErrorCode = "invalid_mode"
	StorageConfigErrorMissingEmulatorHost StorageConfigErrorCode = "missing_emulator_host"
	StorageConfigErrorInvalidEmulatorHost StorageConfigErrorCode = "invalid_emulator_host"
	StorageConfigErrorMissingBucket       StorageConfigErrorCode = "missing_bucket"
)

type StorageConfigError struct {
	Code  StorageConfigErrorCode
	Value string
	Cause error
}

func (e *StorageConfigError) Error() string {
	if e == nil {
		return "invalid object storage config"
	}
	switch e.Code {
	case StorageConfigErrorInvalidMode:
		return fmt.Sprintf("invalid OBJECT_STORAGE_MODE=%q (allowed: %q, %q)", e.Value, StorageModeGCS, StorageModeGCSEmulator)
	case StorageConfigErrorMissingEmulatorHost:
		return fmt.Sprintf("OBJECT_STORAGE_MODE=%q requires STORAGE_EMULATOR_HOST to be set", StorageModeGCSEmulator)
	case StorageConfigErrorInvalidEmulatorHost:
		return fmt.Sprintf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", e.Value)
	case StorageConfigErrorMissingBucket:
		return fmt.Sprintf("missing env var %s", e.Value)
	default:
		return "invalid object storage config"
	}
}

func (e *StorageConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func StorageConfigFromEnv() (StorageConfig, error) {
	cfg, err := StorageConfigFrom(os.Getenv)
	if err != nil {
		return cfg, err
	}
	if err := ValidateStorageConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// StorageConfigFrom resolves the mode and bucket names from any key lookup (env, viper).
// Only the mode is checked here; ValidateStorageConfig runs when the client is built.
func StorageConfigFrom(get func(string) string) (StorageConfig, error) {
	cfg := StorageConfig{
		EmulatorHost:      strings.TrimRight(strings.TrimSpace(get("STORAGE_EMULATOR_HOST")), "/"),
		TranscriptsBucket: strings.TrimSpace(get("TRANSCRIPTS_GCS_BUCKET_NAME")),
		SentimentBucket:   strings.TrimSpace(get("SENTIMENT_GCS_BUCKET_NAME")),
		AudioBucket:       strings.TrimSpace(get("AUDIO_GCS_BUCKET_NAME")),
	}

	rawMode := strings.TrimSpace(get("OBJECT_STORAGE_MODE"))
	switch StorageMode(strings.ToLower(rawMode)) {
	case "":
		if cfg.EmulatorHost != "" {
			cfg.Mode = StorageModeGCSEmulator
			cfg.ModeInferred = true
		} else {
			cfg.Mode = StorageModeGCS
		}
	case StorageModeGCS:
		cfg.Mode = StorageModeGCS
	case StorageModeGCSEmulator:
		cfg.Mode = StorageModeGCSEmulator
	default:
		return cfg, &StorageConfigError{Code: StorageConfigErrorInvalidMode, Value: rawMode}
	}
	return cfg, nil
}

func ValidateStorageConfig(cfg StorageConfig) error {
	switch cfg.Mode {
	case StorageModeGCS, StorageModeGCSEmulator:
	default:
		return &StorageConfigError{Code: StorageConfigErrorInvalidMode, Value: string(cfg.Mode)}
	}
	for env, name := range map[string]string{
		"TRANSCRIPTS_GCS_BUCKET_NAME": cfg.TranscriptsBucket,
		"SENTIMENT_GCS_BUCKET_NAME":   cfg.SentimentBucket,
		"AUDIO_GCS_BUCKET_NAME":       cfg.AudioBucket,
	} {
		if name == "" {
			return &StorageConfigError{Code: StorageConfigErrorMissingBucket, Value: env}
		}
	}
	if !cfg.IsEmulator() {
		return nil
	}
	if cfg.EmulatorHost == "" {
		return &StorageConfigError{Code: StorageConfigErrorMissingEmulatorHost}
	}
	u, err := url.Parse(cfg.EmulatorHost)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &StorageConfigError{Code: StorageConfigErrorInvalidEmulatorHost, Value: cfg.EmulatorHost, Cause: err}
	}
	return nil
}
