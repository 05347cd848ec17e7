package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/sirupsen/logrus"

	"github.com/ytget/shizuku-bot/internal/model"
)

// Fetch defaults
const (
	DefaultOutputTemplate   = "%(title)s.%(ext)s"
	DefaultProgressInterval = 500 * time.Millisecond
	DefaultFetchRetries     = 1
	RetryBackoff            = 2 * time.Second
)

// AudioConverter converts a downloaded file into an audio container
type AudioConverter interface {
	ToAudio(ctx context.Context, inputPath, container string) (string, error)
}

// FetcherOptions configures YTDLPFetcher
type FetcherOptions struct {
	OutputDir   string
	CookiesFile string
	MaxSizeMB   int
	Retries     int
}

// YTDLPFetcher downloads the chosen format with yt-dlp into a per-session
// directory under the output directory
type YTDLPFetcher struct {
	outputDir        string
	cookiesFile      string
	maxSizeMB        int
	retries          int
	progressInterval time.Duration
	converter        AudioConverter
	log              logrus.FieldLogger
}

// NewYTDLPFetcher creates a new fetcher
func NewYTDLPFetcher(opts FetcherOptions, converter AudioConverter, log logrus.FieldLogger) *YTDLPFetcher {
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	return &YTDLPFetcher{
		outputDir:        opts.OutputDir,
		cookiesFile:      opts.CookiesFile,
		maxSizeMB:        opts.MaxSizeMB,
		retries:          opts.Retries,
		progressInterval: DefaultProgressInterval,
		converter:        converter,
		log:              log,
	}
}

// Fetch downloads sourceURL according to spec and returns the produced file.
// Progress is reported as downloading events and one finished event once the
// file is ready.
func (f *YTDLPFetcher) Fetch(ctx context.Context, sourceURL string, spec model.FetchSpec, progress func(model.ProgressEvent)) (string, error) {
	if spec.SessionID == "" {
		return "", fmt.Errorf("fetch spec has no session id")
	}

	workDir := filepath.Join(f.outputDir, spec.SessionID)
	if err := CreateDirectoryIfNotExists(workDir); err != nil {
		return "", fmt.Errorf("failed to create work directory: %w", err)
	}

	logger := f.log.WithFields(logrus.Fields{"session_id": spec.SessionID, "format": spec.Selector()})

	dl := f.command(workDir, spec)
	tracker := newStreamProgress(expectedStreams(spec))
	dl.ProgressFunc(f.progressInterval, func(update ytdlp.ProgressUpdate) {
		if ev, ok := tracker.update(update.Filename, update.DownloadedBytes, update.TotalBytes); ok && progress != nil {
			progress(ev)
		}
	})

	if err := f.runWithRetry(ctx, dl, sourceURL, logger); err != nil {
		os.RemoveAll(workDir)
		return "", err
	}

	path, err := FindDownloadedFile(workDir)
	if err != nil {
		os.RemoveAll(workDir)
		return "", err
	}

	if needsConversion(spec, path) {
		converted, err := f.converter.ToAudio(ctx, path, spec.Container)
		if err != nil {
			os.RemoveAll(workDir)
			return "", fmt.Errorf("failed to convert to %s: %w", spec.Container, err)
		}
		if converted != path {
			os.Remove(path)
		}
		path = converted
	}

	if progress != nil {
		progress(model.ProgressEvent{Status: model.ProgressFinished, Percent: 100})
	}
	logger.WithField("path", path).Info("Fetch finished")
	return path, nil
}

// Cleanup removes the per-session directory holding path
func (f *YTDLPFetcher) Cleanup(path string) error {
	return RemoveWorkDir(f.outputDir, path)
}

// command configures yt-dlp for one fetch
func (f *YTDLPFetcher) command(workDir string, spec model.FetchSpec) *ytdlp.Command {
	dl := ytdlp.New().
		ForceOverwrites().
		NoPlaylist().
		NoWarnings().
		Format(spec.Selector()).
		Output(filepath.Join(workDir, DefaultOutputTemplate))

	if spec.Kind == model.MediaVideo {
		dl.MergeOutputFormat(spec.Container)
	}
	if f.cookiesFile != "" {
		dl.Cookies(f.cookiesFile)
	}
	if f.maxSizeMB > 0 {
		dl.MaxFileSize(fmt.Sprintf("%dM", f.maxSizeMB))
	}
	return dl
}

// runWithRetry attempts the download with a fixed backoff between attempts
func (f *YTDLPFetcher) runWithRetry(ctx context.Context, dl *ytdlp.Command, url string, logger logrus.FieldLogger) error {
	var lastErr error

	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(RetryBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			logger.WithField("attempt", attempt+1).Info("Retrying download")
		}

		_, err := dl.Run(ctx, url)
		if err == nil {
			return nil
		}

		lastErr = err
		logger.WithField("attempt", attempt+1).WithError(err).Warn("Download attempt failed")

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return lastErr
}

// streamProgress folds the per-file updates of yt-dlp into one percentage.
// Each file weighs 1/n of the total, where n is the larger of the expected
// and the observed number of files. The result never decreases.
type streamProgress struct {
	mu       sync.Mutex
	expected int
	files    map[string]float64 // filename -> fraction done
	last     float64
}

func newStreamProgress(expected int) *streamProgress {
	if expected < 1 {
		expected = 1
	}
	return &streamProgress{expected: expected, files: make(map[string]float64), last: -1}
}

// update records the counters of one file and returns the overall event.
// Unknown totals and updates that would lower the percentage are dropped.
func (p *streamProgress) update(filename string, downloaded, total int) (model.ProgressEvent, bool) {
	if total <= 0 {
		return model.ProgressEvent{}, false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.files[filename] = min(float64(downloaded)/float64(total), 1)

	var done float64
	for _, fraction := range p.files {
		done += fraction
	}
	percent := done / float64(max(p.expected, len(p.files))) * 100

	if percent < p.last {
		return model.ProgressEvent{}, false
	}
	p.last = percent
	return model.ProgressEvent{Status: model.ProgressDownloading, Percent: percent}, true
}

// expectedStreams is the number of files yt-dlp downloads for spec
func expectedStreams(spec model.FetchSpec) int {
	if spec.Audio == model.AudioBest {
		return 2
	}
	return 1
}

// needsConversion reports whether an audio download landed in another container
func needsConversion(spec model.FetchSpec, path string) bool {
	if spec.Kind != model.MediaAudio || spec.Container == "" {
		return false
	}
	return !strings.EqualFold(strings.TrimPrefix(filepath.Ext(path), "."), spec.Container)
}
