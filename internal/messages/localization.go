package messages

import "fmt"

// Localization manages bot text translations
type Localization struct {
	currentLanguage string
	texts           map[string]map[string]string
}

// Text keys for localization
const (
	KeySelectType       = "select_type"
	KeySelectFormat     = "select_format"
	KeySelectQuality    = "select_quality"
	KeyButtonVideo      = "button_video"
	KeyButtonAudio      = "button_audio"
	KeyKindSelected     = "kind_selected"
	KeyFormatSelected   = "format_selected"
	KeyStartingDownload = "starting_download"
	KeyDownloading      = "downloading"
	KeyDownloadComplete = "download_complete"
	KeyLinkExpired      = "link_expired"
	KeyStageMismatch    = "stage_mismatch"
	KeyInvalidButton    = "invalid_button"
	KeyLookupFailed     = "lookup_failed"
	KeyNoFormats        = "no_formats"
	KeyFetchError       = "fetch_error"
	KeyQueued           = "queued"

	KeyStartCaption = "start_caption"
	KeyHelpCaption  = "help_caption"
	KeyPong         = "pong"
	KeyUserInfo     = "user_info"
	KeyUserID       = "user_id"
	KeyChatInfo     = "chat_info"
	KeyAFKSet       = "afk_set"
	KeyAFKBack      = "afk_back"
	KeyAFKNotice    = "afk_notice"
	KeyAFKReason    = "afk_reason"
	KeyNotAvailable = "not_available"
)

// NewLocalization creates a new localization manager
func NewLocalization() *Localization {
	l := &Localization{
		currentLanguage: "en",
		texts:           make(map[string]map[string]string),
	}

	l.initializeTexts()
	return l
}

// SetLanguage sets the current language; unknown languages are ignored
func (l *Localization) SetLanguage(lang string) {
	if lang == "system" {
		lang = "en"
	}

	if _, exists := l.texts[lang]; exists {
		l.currentLanguage = lang
	}
}

// GetText returns localized text for the given key
func (l *Localization) GetText(key string) string {
	if texts, exists := l.texts[l.currentLanguage]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	// Fallback to English
	if texts, exists := l.texts["en"]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	// Final fallback - return key itself
	return key
}

// Format returns the localized text for key with args applied
func (l *Localization) Format(key string, args ...any) string {
	return fmt.Sprintf(l.GetText(key), args...)
}

// GetCurrentLanguage returns the current language code
func (l *Localization) GetCurrentLanguage() string {
	return l.currentLanguage
}

// GetAvailableLanguages returns map of available languages with their display names
func (l *Localization) GetAvailableLanguages() map[string]string {
	return map[string]string{
		"en": "English",
		"ru": "Русский",
	}
}

// initializeTexts initializes all text translations
func (l *Localization) initializeTexts() {
	// English texts
	l.texts["en"] = map[string]string{
		KeySelectType:       "Select type to download:",
		KeySelectFormat:     "Select format:",
		KeySelectQuality:    "Select quality:",
		KeyButtonVideo:      IconVideo + " Video",
		KeyButtonAudio:      IconAudio + " Audio",
		KeyKindSelected:     "%s selected " + IconHappy,
		KeyFormatSelected:   "%s selected " + IconHappy,
		KeyStartingDownload: "Starting download " + IconHappy,
		KeyDownloading:      IconHappy + " Downloading… [%s] %d%%",
		KeyDownloadComplete: IconHappy + " Download Complete " + IconParty,
		KeyLinkExpired:      IconError + " URL expired!",
		KeyStageMismatch:    IconWarning + " This step is not available yet.",
		KeyInvalidButton:    IconError + " Unknown button.",
		KeyLookupFailed:     IconError + " Could not read the available formats. Send the link again.",
		KeyNoFormats:        IconError + " No %s formats available for this link.",
		KeyFetchError:       IconError + " Error: %s",
		KeyQueued:           IconClock + " Waiting for a free download slot…",

		KeyStartCaption: IconFlower + " Welcome to Shizuku AFK Bot! " + IconFlower + "\n\n" +
			"Inspired by Shizuku from Hunter x Hunter, this bot brings her calm and mysterious vibe into your group. " +
			"Go AFK with a reason, or send a YouTube link to download it as video or audio. ✨",
		KeyHelpCaption: IconFlower + " Shizuku AFK Bot Help Menu " + IconFlower + "\n\n" +
			"Available Commands:\n" +
			"/afk [reason] → Set your AFK with an optional reason.\n" +
			"/ping → Test if the bot is alive.\n" +
			"/info → Get your username and full name.\n" +
			"/id → Get your user ID.\n" +
			"/chatinfo → Get current chat/group info and ID.\n" +
			"/help → Show this help menu.\n\n" +
			"Send a YouTube link to download video or audio.",
		KeyPong:         "🏓 Pong!\n📅 %s",
		KeyUserInfo:     "👤 User Info:\nName: %s\nUsername: @%s",
		KeyUserID:       "🆔 User ID: %d",
		KeyChatInfo:     "🏠 Chat Info:\nTitle: %s\nType: %s\nChat ID: %d",
		KeyAFKSet:       IconSleep + " %s is now AFK.\n%s",
		KeyAFKBack:      IconReturn + " Welcome back %s\n" + IconClock + " AFK: %s\n" + IconReason + " Reason: %s",
		KeyAFKNotice:    IconSleep + "🎀 %s is AFK.\n" + IconClock + " AFK: %s\n" + IconReason + " Reason: %s",
		KeyAFKReason:    IconReason + " Reason: %s",
		KeyNotAvailable: "N/A",
	}

	// Russian texts
	l.texts["ru"] = map[string]string{
		KeySelectType:       "Что скачать?",
		KeySelectFormat:     "Выберите формат:",
		KeySelectQuality:    "Выберите качество:",
		KeyButtonVideo:      IconVideo + " Видео",
		KeyButtonAudio:      IconAudio + " Аудио",
		KeyKindSelected:     "Выбрано: %s " + IconHappy,
		KeyFormatSelected:   "Выбрано: %s " + IconHappy,
		KeyStartingDownload: "Начинаю загрузку " + IconHappy,
		KeyDownloading:      IconHappy + " Загрузка… [%s] %d%%",
		KeyDownloadComplete: IconHappy + " Загрузка завершена " + IconParty,
		KeyLinkExpired:      IconError + " Ссылка устарела!",
		KeyStageMismatch:    IconWarning + " Этот шаг пока недоступен.",
		KeyInvalidButton:    IconError + " Неизвестная кнопка.",
		KeyLookupFailed:     IconError + " Не удалось получить список форматов. Пришлите ссылку ещё раз.",
		KeyNoFormats:        IconError + " Для этой ссылки нет форматов %s.",
		KeyFetchError:       IconError + " Ошибка: %s",
		KeyQueued:           IconClock + " Ожидание свободного слота загрузки…",
		KeyPong:             "🏓 Понг!\n📅 %s",
		KeyUserInfo:         "👤 Пользователь:\nИмя: %s\nUsername: @%s",
		KeyUserID:           "🆔 ID пользователя: %d",
		KeyChatInfo:         "🏠 Чат:\nНазвание: %s\nТип: %s\nID чата: %d",
		KeyAFKSet:           IconSleep + " %s теперь AFK.\n%s",
		KeyAFKBack:          IconReturn + " С возвращением, %s\n" + IconClock + " AFK: %s\n" + IconReason + " Причина: %s",
		KeyAFKNotice:        IconSleep + "🎀 %s сейчас AFK.\n" + IconClock + " AFK: %s\n" + IconReason + " Причина: %s",
		KeyAFKReason:        IconReason + " Причина: %s",
	}
}
