package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/ytget/shizuku-bot/internal/model"
)

// Timeout constants
const (
	DefaultParseTimeout = 60 * time.Second
)

// YTDLPFormatService lists the formats of a link through the yt-dlp JSON dump
type YTDLPFormatService struct {
	timeout     time.Duration
	cookiesFile string
}

// NewYTDLPFormatService creates a new format enumerator
func NewYTDLPFormatService(cookiesFile string) *YTDLPFormatService {
	return &YTDLPFormatService{
		timeout:     DefaultParseTimeout,
		cookiesFile: cookiesFile,
	}
}

// SetTimeout sets the timeout for one lookup; zero disables it
func (y *YTDLPFormatService) SetTimeout(timeout time.Duration) {
	y.timeout = timeout
}

// ListFormats runs yt-dlp without downloading and returns the reported formats
func (y *YTDLPFormatService) ListFormats(ctx context.Context, url string) ([]model.Format, error) {
	if y.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, y.timeout)
		defer cancel()
	}

	dl := ytdlp.New().
		SkipDownload().
		DumpJSON().
		NoPlaylist().
		NoWarnings()
	if y.cookiesFile != "" {
		dl.Cookies(y.cookiesFile)
	}

	result, err := dl.Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to dump formats: %w", err)
	}

	return parseFormatsJSON(result.Stdout)
}

// formatJSON mirrors the subset of a yt-dlp format entry the bot uses.
// Numeric fields are null for unknown values.
type formatJSON struct {
	FormatID string   `json:"format_id"`
	Ext      string   `json:"ext"`
	VCodec   string   `json:"vcodec"`
	ACodec   string   `json:"acodec"`
	Height   *float64 `json:"height"`
	ABR      *float64 `json:"abr"`
}

type infoJSON struct {
	ID      string       `json:"id"`
	Formats []formatJSON `json:"formats"`
}

// parseFormatsJSON parses the JSON dump of a single video. Only the first
// JSON value is read, so JSON-lines output yields its first entry.
func parseFormatsJSON(output string) ([]model.Format, error) {
	if strings.TrimSpace(output) == "" {
		return nil, fmt.Errorf("empty yt-dlp output")
	}

	var info infoJSON
	if err := json.NewDecoder(strings.NewReader(output)).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}

	formats := make([]model.Format, 0, len(info.Formats))
	for _, f := range info.Formats {
		if f.FormatID == "" {
			continue
		}
		formats = append(formats, model.Format{
			ID:         f.FormatID,
			Extension:  f.Ext,
			VideoCodec: f.VCodec,
			AudioCodec: f.ACodec,
			Height:     heightOf(f.Height),
			Bitrate:    valueOf(f.ABR),
		})
	}
	return formats, nil
}

func heightOf(h *float64) int {
	if h == nil || *h <= 0 || math.IsNaN(*h) {
		return 0
	}
	return int(*h)
}

func valueOf(v *float64) float64 {
	if v == nil || *v <= 0 || math.IsNaN(*v) {
		return 0
	}
	return *v
}
