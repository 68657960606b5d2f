package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/simpliearn/simpliearn-backend/internal/platform/dbctx"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
)

type BucketCategory string

const (
	BucketCategoryTranscripts BucketCategory = "transcripts"
	BucketCategorySentiment   BucketCategory = "sentiment"
	BucketCategoryAudio       BucketCategory = "audio"
)

var ErrObjectNotFound = errors.New("object not found")

type BucketService interface {
	UploadFile(dbc dbctx.Context, category BucketCategory, key string, file io.Reader) error
	DeleteFile(dbc dbctx.Context, category BucketCategory, key string) error
	DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, category BucketCategory, key string) (bool, error)
	ListKeys(ctx context.Context, category BucketCategory, prefix string) ([]string, error)
	// GSURI is the gs:// address handed to Speech for long-running recognition.
	GSURI(category BucketCategory, key string) string
}

type bucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	cfg           StorageConfig
	httpClient    *http.Client
}

func NewBucketService(log *logger.Logger) (BucketService, error) {
	cfg, err := StorageConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("resolve object storage config: %w", err)
	}
	return NewBucketServiceWithConfig(log, cfg)
}

func NewBucketServiceWithConfig(log *logger.Logger, cfg StorageConfig) (BucketService, error) {
	if err := ValidateStorageConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	serviceLog := log.With("service", "BucketService")

	stClient, err := newStorageClient(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog.Info(
		"Object storage initialized",
		"mode", cfg.Mode,
		"mode_inferred", cfg.ModeInferred,
		"emulator_host", cfg.EmulatorHost,
		"transcripts_bucket", cfg.TranscriptsBucket,
		"sentiment_bucket", cfg.SentimentBucket,
		"audio_bucket", cfg.AudioBucket,
	)

	return &bucketService{
		log:           serviceLog,
		storageClient: stClient,
		cfg:           cfg,
		httpClient:    &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

func newStorageClient(ctx context.Context, cfg StorageConfig) (*storage.Client, error) {
	if cfg.IsEmulator() {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", cfg.EmulatorHost)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	}
	opts := append(ClientOptionsFromEnv(), option.WithScopes(storage.ScopeReadWrite))
	return storage.NewClient(ctx, opts...)
}

func (bs *bucketService) bucketName(category BucketCategory) (string, error) {
	switch category {
	case BucketCategoryTranscripts:
		return bs.cfg.TranscriptsBucket, nil
	case BucketCategorySentiment:
		return bs.cfg.SentimentBucket, nil
	case BucketCategoryAudio:
		return bs.cfg.AudioBucket, nil
	default:
		return "", fmt.Errorf("unknown bucket category: %s", category)
	}
}

func (bs *bucketService) UploadFile(dbc dbctx.Context, category BucketCategory, key string, file io.Reader) error {
	name, err := bs.bucketName(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(dbc.Ctx, 2*time.Minute)
	defer cancel()

	w := bs.storageClient.Bucket(name).Object(key).NewWriter(ctx)
	w.ContentType = ContentTypeForKey(key)
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write %q to GCS: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	bs.log.Debug("Object uploaded", "bucket", name, "key", key)
	return nil
}

// ContentTypeForKey covers the artifact types the pipeline writes.
func ContentTypeForKey(key string) string {
	switch strings.ToLower(path.Ext(strings.TrimSpace(key))) {
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".csv":
		return "text/csv; charset=utf-8"
	case ".flac":
		return "audio/flac"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

func (bs *bucketService) DeleteFile(dbc dbctx.Context, category BucketCategory, key string) error {
	name, err := bs.bucketName(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(dbc.Ctx, 30*time.Second)
	defer cancel()
	if err := bs.storageClient.Bucket(name).Object(key).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("delete %s/%s: %w", name, key, ErrObjectNotFound)
		}
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, name, err)
	}
	return nil
}

func (bs *bucketService) Exists(ctx context.Context, category BucketCategory, key string) (bool, error) {
	name, err := bs.bucketName(category)
	if err != nil {
		return false, err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err = bs.storageClient.Bucket(name).Object(key).Attrs(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrObjectNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s/%s: %w", name, key, err)
	}
}

func (bs *bucketService) ListKeys(ctx context.Context, category BucketCategory, prefix string) ([]string, error) {
	name, err := bs.bucketName(category)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	it := bs.storageClient.Bucket(name).Objects(ctx, &storage.Query{Prefix: prefix})
	out := []string{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, attrs.Name)
	}
	return out, nil
}

func (bs *bucketService) GSURI(category BucketCategory, key string) string {
	name, err := bs.bucketName(category)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("gs://%s/%s", name, strings.TrimLeft(key, "/"))
}

// The reader owns its timeout; cancel runs on Close, not on return.
type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

func (bs *bucketService) DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error) {
	name, err := bs.bucketName(category)
	if err != nil {
		return nil, err
	}
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)

	if bs.cfg.IsEmulator() {
		mediaURL := fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", bs.cfg.EmulatorHost, url.PathEscape(name), url.PathEscape(key))
		req, err := http.NewRequestWithContext(ctx2, http.MethodGet, mediaURL, nil)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed creating emulator download request: %w", err)
		}
		resp, err := bs.httpClient.Do(req)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed emulator download request: %w", err)
		}
		if resp.StatusCode == http.StatusNotFound {
			_ = resp.Body.Close()
			cancel()
			return nil, fmt.Errorf("download %s/%s: %w", name, key, ErrObjectNotFound)
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			_ = resp.Body.Close()
			cancel()
			return nil, fmt.Errorf("emulator download failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return &readCloserWithCancel{ReadCloser: resp.Body, cancel: cancel}, nil
	}

	r, err := bs.storageClient.Bucket(name).Object(key).NewReader(ctx2)
	if err != nil {
		cancel()
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("download %s/%s: %w", name, key, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to open GCS reader: %w", err)
	}
	return &readCloserWithCancel{ReadCloser: r, cancel: cancel}, nil
}

// ReadAll downloads a whole object into memory.
func ReadAll(ctx context.Context, bs BucketService, category BucketCategory, key string) ([]byte, error) {
	rc, err := bs.DownloadFile(ctx, category, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
