package telegram

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v3"

	"github.com/ytget/shizuku-bot/internal/afk"
	"github.com/ytget/shizuku-bot/internal/download"
	"github.com/ytget/shizuku-bot/internal/messages"
	"github.com/ytget/shizuku-bot/internal/platform"
)

// Commands served by the bot
const (
	CmdStart    = "/start"
	CmdHelp     = "/help"
	CmdPing     = "/ping"
	CmdAFK      = "/afk"
	CmdInfo     = "/info"
	CmdID       = "/id"
	CmdChatInfo = "/chatinfo"
)

// Handlers holds the services behind the telebot endpoints
type Handlers struct {
	ctx      context.Context
	sessions *download.Manager
	afk      *afk.Service
	texts    *messages.Localization
	log      logrus.FieldLogger
	now      func() time.Time
}

func (h *Handlers) register(b *tele.Bot) {
	b.Handle(CmdStart, h.onStart)
	b.Handle(CmdHelp, h.onHelp)
	b.Handle(CmdPing, h.onPing)
	b.Handle(CmdAFK, h.onAFK)
	b.Handle(CmdInfo, h.onInfo)
	b.Handle(CmdID, h.onID)
	b.Handle(CmdChatInfo, h.onChatInfo)

	b.Handle(tele.OnText, h.onText)
	b.Handle(tele.OnMedia, h.onMessage)
	b.Handle(tele.OnSticker, h.onMessage)
	b.Handle(tele.OnCallback, h.onCallback)
}

func (h *Handlers) onStart(c tele.Context) error {
	return c.Reply(&tele.Photo{
		File:    tele.FromURL(messages.StartPhotoURL),
		Caption: h.texts.GetText(messages.KeyStartCaption),
	})
}

func (h *Handlers) onHelp(c tele.Context) error {
	return c.Reply(&tele.Photo{
		File:    tele.FromURL(messages.HelpPhotoURL),
		Caption: h.texts.GetText(messages.KeyHelpCaption),
	})
}

func (h *Handlers) onPing(c tele.Context) error {
	return c.Reply(pingText(h.texts, h.now()))
}

func (h *Handlers) onAFK(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	text, err := h.afk.GoAway(h.ctx, sender.ID, displayName(sender), c.Message().Payload)
	if err != nil {
		return err
	}
	return c.Reply(text)
}

func (h *Handlers) onInfo(c tele.Context) error {
	if c.Sender() == nil {
		return nil
	}
	return c.Reply(userInfoText(h.texts, c.Sender()))
}

func (h *Handlers) onID(c tele.Context) error {
	if c.Sender() == nil {
		return nil
	}
	return c.Reply(h.texts.Format(messages.KeyUserID, c.Sender().ID))
}

func (h *Handlers) onChatInfo(c tele.Context) error {
	if c.Chat() == nil {
		return nil
	}
	return c.Reply(chatInfoText(h.texts, c.Chat()))
}

// onText runs the AFK watcher, then opens a download session for links
func (h *Handlers) onText(c tele.Context) error {
	if err := h.onMessage(c); err != nil {
		h.log.WithError(err).Warn("AFK check failed")
	}

	text := strings.TrimSpace(c.Text())
	if platform.IsCommand(text) || !platform.IsSupportedLink(text) {
		return nil
	}

	msg := c.Message()
	_, err := h.sessions.BeginSession(h.ctx, download.LinkMessage{
		Text:      text,
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
	})
	return err
}

// onMessage greets returning AFK users and answers replies to AFK users
func (h *Handlers) onMessage(c tele.Context) error {
	msg := c.Message()
	sender := c.Sender()
	if msg == nil || sender == nil || sender.IsBot {
		return nil
	}

	text, back, err := h.afk.ComeBack(h.ctx, sender.ID, displayName(sender))
	if err != nil {
		return err
	}
	if back {
		return c.Reply(text)
	}

	if msg.ReplyTo == nil || msg.ReplyTo.Sender == nil {
		return nil
	}
	target := msg.ReplyTo.Sender

	text, away, err := h.afk.Mentioned(h.ctx, target.ID, displayName(target), msg.Sticker != nil)
	if err != nil || !away {
		return err
	}
	return c.Reply(text)
}

func (h *Handlers) onCallback(c tele.Context) error {
	cb := c.Callback()
	if cb == nil {
		return nil
	}

	ev := download.CallbackEvent{Payload: cb.Data, QueryID: cb.ID}
	if cb.Message != nil && cb.Message.Chat != nil {
		ev.Message = download.MessageRef{ChatID: cb.Message.Chat.ID, MessageID: cb.Message.ID}
	}

	h.sessions.HandleCallback(h.ctx, ev)
	return nil
}
