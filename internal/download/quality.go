package download

import (
	"sort"

	"github.com/ytget/shizuku-bot/internal/model"
	"github.com/ytget/shizuku-bot/internal/transcode"
)

// BuildQualityMenu turns the enumerator output into the quality menu for the
// chosen kind and container. Entries of another kind or extension, and
// entries without a height (video) or bitrate (audio), are dropped. The rest
// is sorted ascending by that metric and deduplicated on metric, extension
// and codec, keeping the first entry of each group.
//
// An audio container the source does not offer natively but transcode can
// produce (mp3) accepts every audio-only entry; the fetcher converts the
// result.
func BuildQualityMenu(formats []model.Format, kind model.MediaKind, container string) []model.QualityOption {
	anyExtension := kind == model.MediaAudio &&
		transcode.Supports(container) &&
		!offersContainer(formats, kind, container)

	candidates := make([]model.Format, 0, len(formats))
	for _, f := range formats {
		if !usable(f, kind) {
			continue
		}
		if anyExtension || f.Extension == container {
			candidates = append(candidates, f)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return qualityMetric(candidates[i], kind) < qualityMetric(candidates[j], kind)
	})

	seen := make(map[string]struct{}, len(candidates))
	options := make([]model.QualityOption, 0, len(candidates))
	for _, f := range candidates {
		key := dedupeKey(f, kind)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		options = append(options, model.QualityOption{
			Label:    f.QualityLabel(kind),
			FormatID: f.ID,
		})
	}
	return options
}

func offersContainer(formats []model.Format, kind model.MediaKind, container string) bool {
	for _, f := range formats {
		if usable(f, kind) && f.Extension == container {
			return true
		}
	}
	return false
}

func usable(f model.Format, kind model.MediaKind) bool {
	return matchesKind(f, kind) && qualityMetric(f, kind) > 0
}

// matchesKind only trusts an explicit "none" codec: video drops entries
// whose vcodec is "none", audio keeps entries whose vcodec is "none" and
// whose acodec is not. A missing codec field counts as present.
func matchesKind(f model.Format, kind model.MediaKind) bool {
	if kind == model.MediaAudio {
		return f.VideoCodec == model.CodecNone && f.AudioCodec != model.CodecNone
	}
	return f.VideoCodec != model.CodecNone
}

func qualityMetric(f model.Format, kind model.MediaKind) float64 {
	if kind == model.MediaAudio {
		return f.Bitrate
	}
	return float64(f.Height)
}

func dedupeKey(f model.Format, kind model.MediaKind) string {
	if kind == model.MediaAudio {
		return f.BitrateString() + "-" + f.Extension + "-" + f.AudioCodec
	}
	return f.QualityLabel(kind) + "-" + f.Extension + "-" + f.VideoCodec
}
