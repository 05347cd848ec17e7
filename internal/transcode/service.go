package transcode

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// FFmpeg constants for audio conversion
const (
	// Codec settings per container
	MP3Codec   = "libmp3lame"
	MP3Bitrate = "192k"
	M4ACodec   = "aac"
	M4ABitrate = "128k"

	// Container flags
	FastStartFlag = "+faststart"

	// Executable and I/O constants
	FFmpegCommand       = "ffmpeg"
	FFprobeCommand      = "ffprobe"
	FFprobeLogLevel     = "error"
	FFprobeShowEntries  = "format=duration"
	FFprobeOutputFormat = "csv=p=0"
	ProgressPipeTarget  = "pipe:2"
	ProgressTimePrefix  = "out_time_us="
	TaskIDPrefix        = "transcode-"

	// Progress is logged every ProgressLogStep percent
	ProgressLogStep = 25
)

var (
	// ErrUnsupportedContainer indicates a target container without an encoder preset
	ErrUnsupportedContainer = errors.New("unsupported target container")

	// ErrInProgress indicates that the input is already being converted
	ErrInProgress = errors.New("conversion already in progress")
)

type preset struct {
	codec   string
	bitrate string
	extra   []string
}

var presets = map[string]preset{
	"mp3": {codec: MP3Codec, bitrate: MP3Bitrate},
	"m4a": {codec: M4ACodec, bitrate: M4ABitrate, extra: []string{"-movflags", FastStartFlag}},
}

// Service converts audio files with ffmpeg
type Service struct {
	active map[string]string // input path -> task id
	mu     sync.Mutex
	log    logrus.FieldLogger
}

// NewService creates a new transcoding service
func NewService(log logrus.FieldLogger) *Service {
	return &Service{
		active: make(map[string]string),
		log:    log,
	}
}

// Supports reports whether container has an encoder preset
func Supports(container string) bool {
	_, ok := presets[container]
	return ok
}

// ToAudio converts inputPath into container and returns the output path.
// The input is left in place; a failed conversion removes the partial output.
func (s *Service) ToAudio(ctx context.Context, inputPath, container string) (string, error) {
	if !Supports(container) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedContainer, container)
	}
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return "", fmt.Errorf("input file does not exist: %s", inputPath)
	}

	outputPath := generateOutputPath(inputPath, container)
	if outputPath == inputPath {
		return inputPath, nil
	}

	taskID, err := s.acquire(inputPath)
	if err != nil {
		return "", err
	}
	defer s.release(inputPath)

	logger := s.log.WithFields(logrus.Fields{"task_id": taskID, "input": inputPath, "container": container})

	// A missing duration only disables progress logging
	duration, err := s.getDuration(ctx, inputPath)
	if err != nil {
		logger.WithError(err).Debug("Duration unavailable")
	}

	cmd := exec.CommandContext(ctx, FFmpegCommand, BuildFFmpegArgs(inputPath, outputPath, container)...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.monitorProgress(stderr, duration, logger)
	}()
	<-done

	if err := cmd.Wait(); err != nil {
		os.Remove(outputPath)
		if ctx.Err() != nil {
			return "", fmt.Errorf("conversion cancelled: %w", ctx.Err())
		}
		return "", fmt.Errorf("ffmpeg failed: %w", err)
	}

	logger.WithField("elapsed", time.Since(started).Round(time.Millisecond)).Info("Audio converted")
	return outputPath, nil
}

func (s *Service) acquire(inputPath string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, busy := s.active[inputPath]; busy {
		return "", fmt.Errorf("%w: %s (%s)", ErrInProgress, inputPath, id)
	}
	id := generateTaskID()
	s.active[inputPath] = id
	return id, nil
}

func (s *Service) release(inputPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, inputPath)
}

// BuildFFmpegArgs builds the ffmpeg command arguments
func BuildFFmpegArgs(inputPath, outputPath, container string) []string {
	p := presets[container]
	args := []string{
		"-y",            // Overwrite output file
		"-i", inputPath, // Input file
		"-vn",           // Drop video and cover streams
		"-c:a", p.codec, // Audio codec
		"-b:a", p.bitrate, // Audio bitrate
	}
	args = append(args, p.extra...)
	return append(args,
		"-progress", ProgressPipeTarget, // Progress to stderr
		"-nostats", // No stats output
		outputPath, // Output file
	)
}

// getDuration gets the duration of a media file using ffprobe
func (s *Service) getDuration(ctx context.Context, filePath string) (float64, error) {
	cmd := exec.CommandContext(ctx, FFprobeCommand, "-v", FFprobeLogLevel, "-show_entries", FFprobeShowEntries, "-of", FFprobeOutputFormat, filePath)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to run ffprobe: %w", err)
	}
	return parseDuration(string(output))
}

func parseDuration(output string) (float64, error) {
	duration, err := strconv.ParseFloat(strings.TrimSpace(output), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}
	return duration, nil
}

// monitorProgress reads ffmpeg progress output until the pipe closes
func (s *Service) monitorProgress(stderr io.Reader, totalDuration float64, logger logrus.FieldLogger) {
	scanner := bufio.NewScanner(stderr)
	next := ProgressLogStep

	for scanner.Scan() {
		percent, ok := parseProgressLine(scanner.Text(), totalDuration)
		if !ok {
			continue
		}
		if percent >= next {
			logger.WithField("percent", percent).Debug("Conversion progress")
			for next <= percent {
				next += ProgressLogStep
			}
		}
	}
}

// parseProgressLine turns an "out_time_us=" line into a percentage of totalDuration
func parseProgressLine(line string, totalDuration float64) (int, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, ProgressTimePrefix) || totalDuration <= 0 {
		return 0, false
	}

	timeMicroseconds, err := strconv.ParseInt(strings.TrimPrefix(line, ProgressTimePrefix), 10, 64)
	if err != nil {
		return 0, false
	}

	progress := float64(timeMicroseconds) / 1000000.0 / totalDuration
	if progress > 1.0 {
		progress = 1.0
	}
	if progress < 0 {
		progress = 0
	}
	return int(progress * 100), true
}

// generateOutputPath swaps the extension of inputPath for container
func generateOutputPath(inputPath, container string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + "." + container
}

// generateTaskID generates a unique, time-ordered task ID
func generateTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf(TaskIDPrefix+"%d", time.Now().UnixNano())
	}
	return TaskIDPrefix + id.String()
}
