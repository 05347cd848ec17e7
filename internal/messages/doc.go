package messages

// Package messages holds every user-visible string of the bot. Texts are
// looked up by key through Localization, with English as the fallback for
// keys missing in the selected language.
