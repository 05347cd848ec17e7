package messages

// Icons (emojis/symbols)
const (
	IconVideo   = "🎥"
	IconAudio   = "🎵"
	IconError   = "❌"
	IconWarning = "⚠️"
	IconHappy   = "😁"
	IconParty   = "🎉"
	IconSleep   = "😴"
	IconReturn  = "🕊"
	IconClock   = "⏳"
	IconReason  = "📋"
	IconFlower  = "🌸"
)

// Progress bar rendering
const (
	BarFilled   = "▓"
	BarEmpty    = "░"
	BarSegments = 20
)

// Images attached to /start and /help
const (
	StartPhotoURL = "https://files.catbox.moe/dobeog.jpg"
	HelpPhotoURL  = "https://files.catbox.moe/jlp7hd.jpg"
)

// Quotes used as the AFK reason when none was given
var Quotes = []string{
	"🌸 Silence is also an answer.",
	"🌸 Even in chaos, there is beauty.",
	"🌸 Simplicity is the ultimate sophistication.",
	"🌸 Calmness is strength.",
}
