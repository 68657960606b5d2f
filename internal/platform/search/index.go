package search

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve"
)

const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 150
)

type Chunk struct {
	ID   string `json:"id"`
	Seq  int    `json:"seq"`
	Text string `json:"text"`
}

// SplitChunks cuts text into windows of about size characters that overlap by overlap
// characters. Cuts fall on whitespace when one is available in the second half of the window.
func SplitChunks(text string, size, overlap int) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	r := []rune(text)
	out := []string{}
	for start := 0; start < len(r); {
		end := start + size
		if end >= len(r) {
			out = append(out, strings.TrimSpace(string(r[start:])))
			break
		}
		cut := end
		for i := end; i > start+size/2; i-- {
			if r[i] == ' ' {
				cut = i
				break
			}
		}
		out = append(out, strings.TrimSpace(string(r[start:cut])))
		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return out
}

// TranscriptIndex is an in-memory full-text index over one transcript's chunks.
type TranscriptIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	chunks []Chunk
}

func NewTranscriptIndex(text string) (*TranscriptIndex, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	ti := &TranscriptIndex{index: idx}
	batch := idx.NewBatch()
	for i, c := range SplitChunks(text, DefaultChunkSize, DefaultChunkOverlap) {
		ch := Chunk{ID: strconv.Itoa(i), Seq: i, Text: c}
		ti.chunks = append(ti.chunks, ch)
		if err := batch.Index(ch.ID, ch); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("index chunk %d: %w", i, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("index batch: %w", err)
	}
	return ti, nil
}

func (ti *TranscriptIndex) Len() int {
	ti.mu.RLock()
	defer ti.mu.RUnlock()
	return len(ti.chunks)
}

// Top returns up to k chunks best matching query, best first. With no match it falls back to
// the opening chunks, which name the company and the call participants.
func (ti *TranscriptIndex) Top(query string, k int) ([]Chunk, error) {
	ti.mu.RLock()
	defer ti.mu.RUnlock()
	if k <= 0 || len(ti.chunks) == 0 {
		return nil, nil
	}
	out := []Chunk{}
	if q := strings.TrimSpace(query); q != "" {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(q), k, 0, false)
		res, err := ti.index.Search(req)
		if err != nil {
			return nil, fmt.Errorf("search transcript: %w", err)
		}
		for _, hit := range res.Hits {
			i, err := strconv.Atoi(hit.ID)
			if err != nil || i < 0 || i >= len(ti.chunks) {
				continue
			}
			out = append(out, ti.chunks[i])
		}
	}
	if len(out) == 0 {
		out = append(out, ti.chunks[:min(k, len(ti.chunks))]...)
	}
	return out, nil
}

func (ti *TranscriptIndex) Close() error {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	if ti.index == nil {
		return nil
	}
	err := ti.index.Close()
	ti.index = nil
	return err
}

// Cache keeps the most recently built indexes, keyed by caller-chosen strings.
type Cache struct {
	mu    sync.Mutex
	max   int
	order []string
	items map[string]*TranscriptIndex
}

func NewCache(max int) *Cache {
	if max <= 0 {
		max = 16
	}
	return &Cache{max: max, items: map[string]*TranscriptIndex{}}
}

// Get returns the cached index for key or builds one from load.
func (c *Cache) Get(key string, load func() (string, error)) (*TranscriptIndex, error) {
	c.mu.Lock()
	if ti, ok := c.items[key]; ok {
		c.touch(key)
		c.mu.Unlock()
		return ti, nil
	}
	c.mu.Unlock()

	text, err := load()
	if err != nil {
		return nil, err
	}
	ti, err := NewTranscriptIndex(text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.items[key]; ok {
		_ = ti.Close()
		c.touch(key)
		return existing, nil
	}
	c.items[key] = ti
	c.order = append(c.order, key)
	for len(c.order) > c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		if old, ok := c.items[oldest]; ok {
			delete(c.items, oldest)
			_ = old.Close()
		}
	}
	return ti, nil
}

// Forget drops every entry whose key starts with prefix.
func (c *Cache) Forget(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.order[:0]
	for _, k := range c.order {
		if strings.HasPrefix(k, prefix) {
			if ti, ok := c.items[k]; ok {
				delete(c.items, k)
				_ = ti.Close()
			}
			continue
		}
		kept = append(kept, k)
	}
	c.order = kept
}

func (c *Cache) touch(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(append(c.order[:i:i], c.order[i+1:]...), key)
			return
		}
	}
}
