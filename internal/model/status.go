package model

// Stage represents the position of a download session in the negotiation
type Stage string

const (
	// StageAwaitingType means the video/audio menu is shown
	StageAwaitingType Stage = "awaiting_type"

	// StageAwaitingFormat means the container menu is shown
	StageAwaitingFormat Stage = "awaiting_format"

	// StageAwaitingQuality means the quality menu is shown
	StageAwaitingQuality Stage = "awaiting_quality"

	// StageDownloading means the fetch is in progress
	StageDownloading Stage = "downloading"

	// StageDone means the file was delivered
	StageDone Stage = "done"

	// StageFailed means lookup, fetch, or delivery failed
	StageFailed Stage = "failed"

	// StageExpired means the session is no longer known
	StageExpired Stage = "expired"
)

// String returns the string representation of Stage
func (s Stage) String() string {
	return string(s)
}

// Rank returns the position of the stage in the forward-only ordering.
// Terminal stages share the highest rank; unknown stages return -1.
func (s Stage) Rank() int {
	switch s {
	case StageAwaitingType:
		return 0
	case StageAwaitingFormat:
		return 1
	case StageAwaitingQuality:
		return 2
	case StageDownloading:
		return 3
	case StageDone, StageFailed, StageExpired:
		return 4
	default:
		return -1
	}
}

// IsAwaiting returns true while the session waits for a user selection
func (s Stage) IsAwaiting() bool {
	return s == StageAwaitingType || s == StageAwaitingFormat || s == StageAwaitingQuality
}

// IsTerminal returns true if the session can no longer change (done, failed, or expired)
func (s Stage) IsTerminal() bool {
	return s == StageDone || s == StageFailed || s == StageExpired
}

// Next returns the stage following s on the success path, or s itself for terminal stages
func (s Stage) Next() Stage {
	switch s {
	case StageAwaitingType:
		return StageAwaitingFormat
	case StageAwaitingFormat:
		return StageAwaitingQuality
	case StageAwaitingQuality:
		return StageDownloading
	case StageDownloading:
		return StageDone
	default:
		return s
	}
}

// CanTransition reports whether a session may move from s to next.
// Transitions only move one step forward, or into failed from any live stage.
func (s Stage) CanTransition(next Stage) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StageFailed {
		return true
	}
	return s.Next() == next
}
