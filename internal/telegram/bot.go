package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/middleware"

	"github.com/ytget/shizuku-bot/internal/afk"
	"github.com/ytget/shizuku-bot/internal/download"
	"github.com/ytget/shizuku-bot/internal/messages"
)

// Options configures the bot connection
type Options struct {
	Token       string
	PollTimeout time.Duration
}

// Bot owns the telebot instance and its outbound transport
type Bot struct {
	bot       *tele.Bot
	transport *Transport
	log       logrus.FieldLogger
}

// New connects to the Bot API with a long poller
func New(opts Options, log logrus.FieldLogger) (*Bot, error) {
	b, err := tele.NewBot(tele.Settings{
		Token:  opts.Token,
		Poller: &tele.LongPoller{Timeout: opts.PollTimeout},
		OnError: func(err error, c tele.Context) {
			entry := log.WithError(err)
			if c != nil && c.Chat() != nil {
				entry = entry.WithField("chat_id", c.Chat().ID)
			}
			entry.Error("Handler failed")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.Use(middleware.Recover())

	return &Bot{
		bot:       b,
		transport: NewTransport(b),
		log:       log,
	}, nil
}

// Transport returns the outbound transport for the download manager
func (b *Bot) Transport() *Transport {
	return b.transport
}

// Register installs the command, message and callback handlers. ctx bounds
// the work started by handlers.
func (b *Bot) Register(ctx context.Context, sessions *download.Manager, afkService *afk.Service, texts *messages.Localization) {
	h := &Handlers{
		ctx:      ctx,
		sessions: sessions,
		afk:      afkService,
		texts:    texts,
		log:      b.log,
		now:      time.Now,
	}
	h.register(b.bot)
}

// Start polls for updates until Stop is called
func (b *Bot) Start() {
	b.log.WithField("username", b.bot.Me.Username).Info("Bot started")
	b.bot.Start()
}

// Stop stops polling
func (b *Bot) Stop() {
	b.bot.Stop()
}
