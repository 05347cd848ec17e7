package model

import (
	"fmt"
	"strconv"
)

// CodecNone is the codec value the extractor reports for an absent stream
const CodecNone = "none"

// Format is one encoding reported by the format enumerator
type Format struct {
	ID         string
	Extension  string
	VideoCodec string  // "none" or empty when the format has no video
	AudioCodec string  // "none" or empty when the format has no audio
	Height     int     // pixel height, 0 when unknown
	Bitrate    float64 // audio bitrate in kbps, 0 when unknown
}

// HasVideo returns true if the format carries a video stream
func (f Format) HasVideo() bool {
	return f.VideoCodec != "" && f.VideoCodec != CodecNone
}

// HasAudio returns true if the format carries an audio stream
func (f Format) HasAudio() bool {
	return f.AudioCodec != "" && f.AudioCodec != CodecNone
}

// BitrateString renders the bitrate without trailing zeros (e.g. "129.478", "128")
func (f Format) BitrateString() string {
	return strconv.FormatFloat(f.Bitrate, 'f', -1, 64)
}

// QualityLabel returns the human-readable quality for the media kind
func (f Format) QualityLabel(kind MediaKind) string {
	if kind == MediaAudio {
		return f.BitrateString() + "kbps"
	}
	return fmt.Sprintf("%dp", f.Height)
}

// QualityOption is one entry of the quality menu
type QualityOption struct {
	Label    string
	FormatID string
}
