// Package gcptest provides an in-memory BucketService for tests.
package gcptest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/simpliearn/simpliearn-backend/internal/platform/dbctx"
	"github.com/simpliearn/simpliearn-backend/internal/platform/gcp"
)

type MemBucket struct {
	mu      sync.Mutex
	objects map[string][]byte

	// FailUpload, when set, is returned by UploadFile for matching keys.
	FailUpload func(category gcp.BucketCategory, key string) error
}

func NewMemBucket() *MemBucket {
	return &MemBucket{objects: map[string][]byte{}}
}

func objectKey(category gcp.BucketCategory, key string) string {
	return string(category) + "/" + key
}

func (b *MemBucket) Put(category gcp.BucketCategory, key string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[objectKey(category, key)] = append([]byte(nil), data...)
}

func (b *MemBucket) Get(category gcp.BucketCategory, key string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.objects[objectKey(category, key)]
	return v, ok
}

func (b *MemBucket) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

func (b *MemBucket) UploadFile(_ dbctx.Context, category gcp.BucketCategory, key string, file io.Reader) error {
	if b.FailUpload != nil {
		if err := b.FailUpload(category, key); err != nil {
			return err
		}
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	b.Put(category, key, data)
	return nil
}

func (b *MemBucket) DeleteFile(_ dbctx.Context, category gcp.BucketCategory, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, objectKey(category, key))
	return nil
}

func (b *MemBucket) DownloadFile(_ context.Context, category gcp.BucketCategory, key string) (io.ReadCloser, error) {
	data, ok := b.Get(category, key)
	if !ok {
		return nil, fmt.Errorf("download %s/%s: %w", category, key, gcp.ErrObjectNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *MemBucket) Exists(_ context.Context, category gcp.BucketCategory, key string) (bool, error) {
	_, ok := b.Get(category, key)
	return ok, nil
}

func (b *MemBucket) ListKeys(_ context.Context, category gcp.BucketCategory, prefix string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []string{}
	p := objectKey(category, prefix)
	for k := range b.objects {
		if strings.HasPrefix(k, p) {
			out = append(out, strings.TrimPrefix(k, string(category)+"/"))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (b *MemBucket) GSURI(category gcp.BucketCategory, key string) string {
	return "gs://" + string(category) + "/" + key
}

var _ gcp.BucketService = (*MemBucket)(nil)
