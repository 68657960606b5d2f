package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
)

type Metadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	UploadDate  string `json:"upload_date"`
	Source      string `json:"-"`
}

// InfoDumper is the yt-dlp side of metadata resolution.
type InfoDumper interface {
	DumpJSON(ctx context.Context, videoURL string) ([]byte, error)
}

type MetadataClient interface {
	Resolve(ctx context.Context, videoID string) Metadata
}

type metadataClient struct {
	log    *logger.Logger
	api    *yt.Service
	dumper InfoDumper
	now    func() time.Time
}

// NewMetadataClient builds a resolver that prefers the Data API (when apiKey is set), then
// yt-dlp, then a default record.
func NewMetadataClient(ctx context.Context, log *logger.Logger, apiKey string, dumper InfoDumper, opts ...option.ClientOption) (MetadataClient, error) {
	c := &metadataClient{
		log:    log.With("client", "YouTubeMetadata"),
		dumper: dumper,
		now:    time.Now,
	}
	if key := strings.TrimSpace(apiKey); key != "" {
		opts = append([]option.ClientOption{option.WithAPIKey(key)}, opts...)
		svc, err := yt.NewService(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("youtube.NewService: %w", err)
		}
		c.api = svc
	}
	return c, nil
}

func (c *metadataClient) Resolve(ctx context.Context, videoID string) Metadata {
	if c.api != nil {
		md, err := c.fromAPI(ctx, videoID)
		if err == nil {
			return md
		}
		c.log.Warn("YouTube API metadata failed; trying yt-dlp", "video_id", videoID, "error", err)
	}
	if c.dumper != nil {
		md, err := c.fromDump(ctx, videoID)
		if err == nil {
			return md
		}
		c.log.Warn("yt-dlp metadata failed; using defaults", "video_id", videoID, "error", err)
	}
	return Metadata{
		Title:      "Earnings Call " + videoID,
		UploadDate: c.now().Format("2006-01-02"),
		Source:     "default",
	}
}

func (c *metadataClient) fromAPI(ctx context.Context, videoID string) (Metadata, error) {
	resp, err := c.api.Videos.List([]string{"snippet"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return Metadata{}, err
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return Metadata{}, fmt.Errorf("video %s not found", videoID)
	}
	sn := resp.Items[0].Snippet
	return Metadata{
		Title:       sn.Title,
		Description: sn.Description,
		UploadDate:  NormalizeDate(sn.PublishedAt, c.now()),
		Source:      "api",
	}, nil
}

func (c *metadataClient) fromDump(ctx context.Context, videoID string) (Metadata, error) {
	raw, err := c.dumper.DumpJSON(ctx, WatchURL(videoID))
	if err != nil {
		return Metadata{}, err
	}
	return ParseDump(raw, c.now())
}

// ParseDump reads the fields we need from a yt-dlp --dump-json document.
func ParseDump(raw []byte, now time.Time) (Metadata, error) {
	var doc struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		UploadDate  string `json:"upload_date"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Metadata{}, fmt.Errorf("decode yt-dlp json: %w", err)
	}
	if strings.TrimSpace(doc.Title) == "" {
		return Metadata{}, fmt.Errorf("yt-dlp json has no title")
	}
	return Metadata{
		Title:       doc.Title,
		Description: doc.Description,
		UploadDate:  NormalizeDate(doc.UploadDate, now),
		Source:      "yt-dlp",
	}, nil
}

// NormalizeDate converts YYYYMMDD, RFC 3339 or YYYY-MM-DD into YYYY-MM-DD. Anything else
// becomes now's date.
func NormalizeDate(s string, now time.Time) string {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"20060102", time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return now.Format("2006-01-02")
}
