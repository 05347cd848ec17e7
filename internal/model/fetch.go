package model

// AudioSelection tells the fetcher whether to add a separate audio track
type AudioSelection string

const (
	AudioBest AudioSelection = "best"
	AudioNone AudioSelection = "none"
)

// FetchSpec describes what the fetcher should retrieve for a session
type FetchSpec struct {
	SessionID string
	FormatID  string
	Audio     AudioSelection
	Container string
	Kind      MediaKind
}

// NewFetchSpec composes the fetch specification for the chosen format.
// Video requests the chosen stream plus the best audio merged into the
// container; audio requests the chosen stream alone.
func NewFetchSpec(s *Session) FetchSpec {
	spec := FetchSpec{
		SessionID: s.ID,
		FormatID:  s.FormatID,
		Audio:     AudioNone,
		Container: s.Container,
		Kind:      s.MediaKind,
	}
	if s.MediaKind == MediaVideo {
		spec.Audio = AudioBest
	}
	return spec
}

// Selector returns the yt-dlp format selector for the spec
func (f FetchSpec) Selector() string {
	if f.Audio == AudioBest {
		return f.FormatID + "+bestaudio/best"
	}
	return f.FormatID
}

// ProgressStatus is the status carried by a progress event
type ProgressStatus string

const (
	ProgressDownloading ProgressStatus = "downloading"
	ProgressFinished    ProgressStatus = "finished"
)

// ProgressEvent is reported by the fetcher while a download runs
type ProgressEvent struct {
	Status  ProgressStatus
	Percent float64 // 0 to 100, meaningful for ProgressDownloading
}
