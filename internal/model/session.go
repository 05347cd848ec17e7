package model

import (
	"fmt"
	"time"
)

// MediaKind is the kind of media requested by the user
type MediaKind string

const (
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
)

// ParseMediaKind converts a callback choice into a MediaKind
func ParseMediaKind(value string) (MediaKind, error) {
	switch MediaKind(value) {
	case MediaVideo, MediaAudio:
		return MediaKind(value), nil
	default:
		return "", fmt.Errorf("unknown media kind: %q", value)
	}
}

// Containers returns the fixed container menu for the media kind
func (k MediaKind) Containers() []string {
	switch k {
	case MediaVideo:
		return []string{"mp4", "webm"}
	case MediaAudio:
		return []string{"mp3", "m4a"}
	default:
		return nil
	}
}

// SupportsContainer reports whether container is offered for the media kind
func (k MediaKind) SupportsContainer(container string) bool {
	for _, c := range k.Containers() {
		if c == container {
			return true
		}
	}
	return false
}

// Session represents one user-initiated download negotiation
type Session struct {
	ID        string    // 8-character token embedded in callback payloads
	SourceURL string    // original link text, immutable
	ChatID    int64     // conversation the link was posted in
	MediaKind MediaKind // set once at the type step
	Container string    // set once at the format step
	FormatID  string    // extractor format id, set once at the quality step
	Stage     Stage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession creates a session waiting for the media type selection
func NewSession(id, sourceURL string, chatID int64) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		SourceURL: sourceURL,
		ChatID:    chatID,
		Stage:     StageAwaitingType,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Advance moves the session to next if the transition is legal
func (s *Session) Advance(next Stage) error {
	if !s.Stage.CanTransition(next) {
		return fmt.Errorf("illegal transition %s -> %s", s.Stage, next)
	}
	s.Stage = next
	s.UpdatedAt = time.Now()
	return nil
}

// IdleFor returns how long the session has not changed
func (s *Session) IdleFor(now time.Time) time.Duration {
	return now.Sub(s.UpdatedAt)
}
