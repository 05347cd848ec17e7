package telegram

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v3"

	"github.com/ytget/shizuku-bot/internal/download"
	"github.com/ytget/shizuku-bot/internal/model"
)

// Outbound rate limits
const (
	DefaultSendRate  = 25 // requests per second across all chats
	DefaultSendBurst = 5
)

// api is the subset of *tele.Bot used by Transport
type api interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
	Respond(c *tele.Callback, resp ...*tele.CallbackResponse) error
}

// Transport implements download.Transport on top of telebot. Sends and edits
// share one rate limiter; callback answers are not limited.
type Transport struct {
	api     api
	limiter *rate.Limiter
}

var _ download.Transport = (*Transport)(nil)

// NewTransport creates a new transport
func NewTransport(a api) *Transport {
	return &Transport{
		api:     a,
		limiter: rate.NewLimiter(rate.Limit(DefaultSendRate), DefaultSendBurst),
	}
}

// SendMenu sends prompt with an inline keyboard as a reply to replyTo
func (t *Transport) SendMenu(ctx context.Context, chatID int64, replyTo int, prompt string, rows [][]download.Button) (download.MessageRef, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return download.MessageRef{}, err
	}

	opts := sendOptions(replyTo)
	opts.ReplyMarkup = toMarkup(rows)

	msg, err := t.api.Send(tele.ChatID(chatID), prompt, opts)
	if err != nil {
		return download.MessageRef{}, fmt.Errorf("failed to send menu: %w", err)
	}
	return download.MessageRef{ChatID: chatID, MessageID: msg.ID}, nil
}

// EditMessage replaces the text of msg. Nil rows remove the keyboard.
func (t *Transport) EditMessage(ctx context.Context, msg download.MessageRef, text string, rows [][]download.Button) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	target := tele.StoredMessage{MessageID: strconv.Itoa(msg.MessageID), ChatID: msg.ChatID}

	var err error
	if len(rows) > 0 {
		_, err = t.api.Edit(target, text, toMarkup(rows))
	} else {
		_, err = t.api.Edit(target, text)
	}
	if isNotModified(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// SendText sends a plain text message as a reply to replyTo
func (t *Transport) SendText(ctx context.Context, chatID int64, replyTo int, text string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := t.api.Send(tele.ChatID(chatID), text, sendOptions(replyTo)); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SendFile uploads path as audio with title, or as a document for video
func (t *Transport) SendFile(ctx context.Context, chatID int64, replyTo int, path string, kind model.MediaKind, title string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	var what interface{}
	name := filepath.Base(path)
	if kind == model.MediaAudio {
		what = &tele.Audio{File: tele.FromDisk(path), Title: title, FileName: name}
	} else {
		what = &tele.Document{File: tele.FromDisk(path), FileName: name}
	}

	if _, err := t.api.Send(tele.ChatID(chatID), what, sendOptions(replyTo)); err != nil {
		return fmt.Errorf("failed to send file: %w", err)
	}
	return nil
}

// AnswerCallback answers the callback query with a short notification
func (t *Transport) AnswerCallback(_ context.Context, queryID, text string) error {
	if queryID == "" {
		return nil
	}
	if err := t.api.Respond(&tele.Callback{ID: queryID}, &tele.CallbackResponse{Text: text}); err != nil {
		return fmt.Errorf("failed to answer callback: %w", err)
	}
	return nil
}

func sendOptions(replyTo int) *tele.SendOptions {
	opts := &tele.SendOptions{}
	if replyTo > 0 {
		opts.ReplyTo = &tele.Message{ID: replyTo}
	}
	return opts
}

// toMarkup converts button rows into an inline keyboard. Button data is
// passed through unchanged so it reaches the callback handler verbatim.
func toMarkup(rows [][]download.Button) *tele.ReplyMarkup {
	keyboard := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tele.InlineButton{Text: b.Text, Data: b.Data})
		}
		keyboard = append(keyboard, buttons)
	}
	return &tele.ReplyMarkup{InlineKeyboard: keyboard}
}

func isNotModified(err error) bool {
	return errors.Is(err, tele.ErrMessageNotModified) || errors.Is(err, tele.ErrSameMessageContent)
}
