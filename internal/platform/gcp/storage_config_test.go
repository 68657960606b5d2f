package gcp

import (
	"errors"
	"testing"
)

func setBuckets(t *testing.T) {
	t.Helper()
	t.Setenv("TRANSCRIPTS_GCS_BUCKET_NAME", "se-transcripts")
	t.Setenv("SENTIMENT_GCS_BUCKET_NAME", "se-sentiment")
	t.Setenv("AUDIO_GCS_BUCKET_NAME", "se-audio")
}

func TestStorageConfigFromEnvDefaultGCS(t *testing.T) {
	setBuckets(t)
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "")

	cfg, err := StorageConfigFromEnv()
	if err != nil {
		t.Fatalf("StorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != StorageModeGCS || cfg.ModeInferred {
		t.Fatalf("mode: got=%q inferred=%v want=gcs false", cfg.Mode, cfg.ModeInferred)
	}
	if cfg.TranscriptsBucket != "se-transcripts" || cfg.AudioBucket != "se-audio" {
		t.Fatalf("buckets: got=%+v", cfg)
	}
}

func TestStorageConfigFromEnvInfersEmulator(t *testing.T) {
	setBuckets(t)
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443/")

	cfg, err := StorageConfigFromEnv()
	if err != nil {
		t.Fatalf("StorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != StorageModeGCSEmulator || !cfg.ModeInferred || cfg.EmulatorHost != "http://fake-gcs:4443" {
		t.Fatalf("got=%+v", cfg)
	}
}

func TestStorageConfigFromEnvErrors(t *testing.T) {
	cases := []struct {
		name     string
		mode     string
		host     string
		buckets  bool
		wantCode StorageConfigErrorCode
	}{
		{"invalid mode", "local", "", true, StorageConfigErrorInvalidMode},
		{"missing emulator host", "gcs_emulator", "", true, StorageConfigErrorMissingEmulatorHost},
		{"invalid emulator host", "gcs_emulator", "fake-gcs:4443", true, StorageConfigErrorInvalidEmulatorHost},
		{"missing bucket", "gcs", "", false, StorageConfigErrorMissingBucket},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.buckets {
				setBuckets(t)
			} else {
				t.Setenv("TRANSCRIPTS_GCS_BUCKET_NAME", "")
				t.Setenv("SENTIMENT_GCS_BUCKET_NAME", "")
				t.Setenv("AUDIO_GCS_BUCKET_NAME", "")
			}
			t.Setenv("OBJECT_STORAGE_MODE", tc.mode)
			t.Setenv("STORAGE_EMULATOR_HOST", tc.host)

			_, err := StorageConfigFromEnv()
			var cfgErr *StorageConfigError
			if !errors.As(err, &cfgErr) || cfgErr.Code != tc.wantCode {
				t.Fatalf("err: got=%v want code=%s", err, tc.wantCode)
			}
		})
	}
}

func TestStorageConfigFromLookupSkipsBucketValidation(t *testing.T) {
	vals := map[string]string{"STORAGE_EMULATOR_HOST": "http://fake-gcs:4443/"}
	cfg, err := StorageConfigFrom(func(k string) string { return vals[k] })
	if err != nil {
		t.Fatalf("StorageConfigFrom: %v", err)
	}
	if cfg.Mode != StorageModeGCSEmulator || cfg.EmulatorHost != "http://fake-gcs:4443" {
		t.Fatalf("cfg: got=%+v", cfg)
	}
	if err := ValidateStorageConfig(cfg); err == nil {
		t.Fatalf("ValidateStorageConfig: expected missing bucket error")
	}
}

func TestClientOptions(t *testing.T) {
	env := map[string]string{}
	get := func(k string) string { return env[k] }
	if got := ClientOptions(get); got != nil {
		t.Fatalf("no creds: got=%d options want=nil", len(got))
	}
	env["GOOGLE_APPLICATION_CREDENTIALS"] = "/secrets/sa.json"
	if got := ClientOptions(get); len(got) != 1 {
		t.Fatalf("file creds: got=%d options want=1", len(got))
	}
	env["GOOGLE_APPLICATION_CREDENTIALS_JSON"] = `{"type":"service_account"}`
	if got := ClientOptions(get); len(got) != 1 {
		t.Fatalf("inline creds: got=%d options want=1", len(got))
	}
}
