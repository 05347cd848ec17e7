package telegram

import (
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/ytget/shizuku-bot/internal/messages"
)

// PingTimeLayout renders the date in the /ping reply
const PingTimeLayout = "Monday, 02 January 2006 | 15:04:05"

// displayName returns the name used to address a user
func displayName(u *tele.User) string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.FirstName); name != "" {
		return name
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return strings.TrimSpace(u.LastName)
}

func pingText(texts *messages.Localization, now time.Time) string {
	return texts.Format(messages.KeyPong, now.Format(PingTimeLayout))
}

func userInfoText(texts *messages.Localization, u *tele.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	username := u.Username
	if username == "" {
		username = texts.GetText(messages.KeyNotAvailable)
	}
	return texts.Format(messages.KeyUserInfo, name, username)
}

func chatInfoText(texts *messages.Localization, c *tele.Chat) string {
	title := c.Title
	if title == "" {
		title = texts.GetText(messages.KeyNotAvailable)
	}
	return texts.Format(messages.KeyChatInfo, title, string(c.Type), c.ID)
}
