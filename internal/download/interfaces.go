package download

import (
	"context"

	"github.com/ytget/shizuku-bot/internal/model"
)

// Button is one inline keyboard button
type Button struct {
	Text string
	Data string // callback payload
}

// MessageRef identifies a message sent by the bot
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// LinkMessage is an inbound message that matched the supported link pattern
type LinkMessage struct {
	Text      string
	ChatID    int64
	MessageID int
}

// CallbackEvent is an inbound button press
type CallbackEvent struct {
	Payload string     // raw callback data
	Message MessageRef // message carrying the pressed button
	QueryID string     // callback query id, answered exactly once
}

// Transport defines the outbound side of the chat platform.
type Transport interface {
	SendMenu(ctx context.Context, chatID int64, replyTo int, prompt string, rows [][]Button) (MessageRef, error)
	EditMessage(ctx context.Context, msg MessageRef, text string, rows [][]Button) error
	SendText(ctx context.Context, chatID int64, replyTo int, text string) error
	SendFile(ctx context.Context, chatID int64, replyTo int, path string, kind model.MediaKind, title string) error
	AnswerCallback(ctx context.Context, queryID, text string) error
}

// FormatEnumerator lists the encodings available for a link.
type FormatEnumerator interface {
	ListFormats(ctx context.Context, sourceURL string) ([]model.Format, error)
}

// Fetcher retrieves the chosen encoding into a local file.
type Fetcher interface {
	// Fetch downloads sourceURL according to spec and returns the local file
	// path. progress is called zero or more times before Fetch returns.
	Fetch(ctx context.Context, sourceURL string, spec model.FetchSpec, progress func(model.ProgressEvent)) (string, error)

	// Cleanup removes the files produced for path once it was delivered
	Cleanup(path string) error
}
