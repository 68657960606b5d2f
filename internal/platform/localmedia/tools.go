package localmedia

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/simpliearn/simpliearn-backend/internal/platform/ctxutil"
	"github.com/simpliearn/simpliearn-backend/internal/platform/envutil"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
)

// Tools wraps the system binaries the ingestion pipeline shells out to.
//
// REQUIRED BINARIES in worker runtime:
// - yt-dlp for video metadata and audio download
// - ffmpeg for audio transcoding
//
// Calls are synchronous and belong in worker jobs, not request handlers.
type Tools interface {
	AssertReady(ctx context.Context) error

	DumpJSON(ctx context.Context, videoURL string) ([]byte, error)
	DownloadAudio(ctx context.Context, videoURL string, outDir string) (string, error)
	TranscodeAudio(ctx context.Context, inPath string, outPath string, opts AudioOptions) (string, error)

	// WorkDir creates a scratch directory under the work root; cleanup removes it.
	WorkDir(prefix string) (string, func(), error)
}

type AudioOptions struct {
	SampleRateHz int
	Channels     int
	Format       string // "wav" or "flac"
}

type tools struct {
	log *logger.Logger

	ytdlpPath  string
	ffmpegPath string

	workRoot string

	defaultTimeout time.Duration
}

func New(log *logger.Logger) Tools {
	slog := log.With("service", "MediaTools")
	return &tools{
		log:            slog,
		ytdlpPath:      envutil.String("YTDLP_PATH", "yt-dlp"),
		ffmpegPath:     envutil.String("FFMPEG_PATH", "ffmpeg"),
		workRoot:       envutil.String("MEDIA_WORK_ROOT", filepath.Join(os.TempDir(), "simpliearn-media")),
		defaultTimeout: envutil.Minutes("MEDIA_TIMEOUT_MINUTES", 20*time.Minute),
	}
}

func (m *tools) AssertReady(ctx context.Context) error {
	for _, bin := range []string{m.ytdlpPath, m.ffmpegPath} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("missing required binary %q in PATH: %w", bin, err)
		}
	}
	if err := os.MkdirAll(m.workRoot, 0o755); err != nil {
		return fmt.Errorf("create workRoot: %w", err)
	}
	return nil
}

func (m *tools) WorkDir(prefix string) (string, func(), error) {
	if err := os.MkdirAll(m.workRoot, 0o755); err != nil {
		return "", func() {}, fmt.Errorf("mkdir workRoot: %w", err)
	}
	dir, err := os.MkdirTemp(m.workRoot, prefix+"-")
	if err != nil {
		return "", func() {}, fmt.Errorf("mkdir work dir: %w", err)
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}

// DumpJSON returns yt-dlp's metadata document for a video without downloading it.
func (m *tools) DumpJSON(ctx context.Context, videoURL string) ([]byte, error) {
	ctx = ctxutil.Default(ctx)
	if strings.TrimSpace(videoURL) == "" {
		return nil, fmt.Errorf("videoURL required")
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	cmd := exec.CommandContext(ctx, m.ytdlpPath, "--dump-json", "--no-playlist", "--no-warnings", videoURL)
	out, err := cmd.Output()
	if err != nil {
		stderr := ""
		if ee, ok := err.(*exec.ExitError); ok {
			stderr = string(ee.Stderr)
		}
		return nil, fmt.Errorf("yt-dlp dump-json failed: %w; out=%s", err, stderr)
	}
	return out, nil
}

// DownloadAudio fetches the best audio-only stream into outDir and returns the file path.
func (m *tools) DownloadAudio(ctx context.Context, videoURL string, outDir string) (string, error) {
	ctx = ctxutil.Default(ctx)
	if strings.TrimSpace(videoURL) == "" {
		return "", fmt.Errorf("videoURL required")
	}
	if outDir == "" {
		return "", fmt.Errorf("outDir required")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir outDir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.defaultTimeout)
	defer cancel()

	tmpl := filepath.Join(outDir, "audio.%(ext)s")
	args := []string{
		"-f", "bestaudio",
		"--no-playlist",
		"--no-progress",
		"-o", tmpl,
		videoURL,
	}
	cmd := exec.CommandContext(ctx, m.ytdlpPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("yt-dlp download failed: %w; out=%s", err, tail(out))
	}

	matches, _ := filepath.Glob(filepath.Join(outDir, "audio.*"))
	for _, p := range matches {
		if strings.HasSuffix(p, ".part") {
			continue
		}
		return p, nil
	}
	return "", fmt.Errorf("audio output missing in %s", outDir)
}

func (m *tools) TranscodeAudio(ctx context.Context, inPath string, outPath string, opts AudioOptions) (string, error) {
	ctx = ctxutil.Default(ctx)
	if inPath == "" {
		return "", fmt.Errorf("inPath required")
	}
	if outPath == "" {
		return "", fmt.Errorf("outPath required")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", fmt.Errorf("mkdir outPath dir: %w", err)
	}

	sr := opts.SampleRateHz
	if sr <= 0 {
		sr = 16000
	}
	ch := opts.Channels
	if ch <= 0 {
		ch = 1
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "flac"
	}
	if format != "wav" && format != "flac" {
		return "", fmt.Errorf("unsupported audio format: %s", format)
	}

	ctx, cancel := context.WithTimeout(ctx, m.defaultTimeout)
	defer cancel()

	args := []string{
		"-y",
		"-i", inPath,
		"-vn",
		"-ac", strconv.Itoa(ch),
		"-ar", strconv.Itoa(sr),
		"-f", format,
		outPath,
	}
	cmd := exec.CommandContext(ctx, m.ffmpegPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffmpeg transcode audio failed: %w; out=%s", err, tail(out))
	}
	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("audio output missing at %s", outPath)
	}
	return outPath, nil
}

// tail keeps the last part of tool output; yt-dlp and ffmpeg print the cause at the end.
func tail(out []byte) string {
	const max = 2000
	if len(out) <= max {
		return string(out)
	}
	return string(out[len(out)-max:])
}
