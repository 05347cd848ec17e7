package telegram

// Package telegram connects the bot services to the Telegram Bot API through
// telebot: it registers command, message and callback handlers and
// implements the outbound transport used by the download manager.
