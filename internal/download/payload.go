package download

import (
	"fmt"
	"strings"

	"github.com/ytget/shizuku-bot/internal/model"
)

// StageTag is the first segment of a callback payload
type StageTag string

const (
	TagType     StageTag = "type"
	TagFormat   StageTag = "format"
	TagDownload StageTag = "download"
)

// Payload wire format constants
const (
	PayloadSeparator = "|"
	PayloadSegments  = 3
	SessionIDLength  = 8
)

// Stage returns the session stage a payload with this tag applies to
func (t StageTag) Stage() (model.Stage, bool) {
	switch t {
	case TagType:
		return model.StageAwaitingType, true
	case TagFormat:
		return model.StageAwaitingFormat, true
	case TagDownload:
		return model.StageAwaitingQuality, true
	default:
		return "", false
	}
}

// Payload is the decoded form of "stage_tag|choice_value|session_id"
type Payload struct {
	Tag       StageTag
	Choice    string
	SessionID string
}

// String encodes the payload in its wire form
func (p Payload) String() string {
	return string(p.Tag) + PayloadSeparator + p.Choice + PayloadSeparator + p.SessionID
}

// ParsePayload decodes callback data. It requires exactly three non-empty
// segments and a known stage tag.
func ParsePayload(data string) (Payload, error) {
	parts := strings.Split(data, PayloadSeparator)
	if len(parts) != PayloadSegments {
		return Payload{}, fmt.Errorf("%w: expected %d segments, got %d", ErrInvalidPayload, PayloadSegments, len(parts))
	}

	p := Payload{Tag: StageTag(parts[0]), Choice: parts[1], SessionID: parts[2]}
	if _, ok := p.Tag.Stage(); !ok {
		return Payload{}, fmt.Errorf("%w: unknown stage tag %q", ErrInvalidPayload, parts[0])
	}
	if p.Choice == "" || p.SessionID == "" {
		return Payload{}, fmt.Errorf("%w: empty segment in %q", ErrInvalidPayload, data)
	}
	return p, nil
}

func button(text string, tag StageTag, choice, sessionID string) Button {
	return Button{
		Text: text,
		Data: Payload{Tag: tag, Choice: choice, SessionID: sessionID}.String(),
	}
}
