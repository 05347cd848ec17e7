package messages

import (
	"strings"
	"testing"
)

func TestLocalization_DefaultsToEnglish(t *testing.T) {
	l := NewLocalization()

	if l.GetCurrentLanguage() != "en" {
		t.Errorf("Expected default language 'en', got '%s'", l.GetCurrentLanguage())
	}
	if got := l.GetText(KeySelectType); got != "Select type to download:" {
		t.Errorf("unexpected text: %q", got)
	}
}

func TestLocalization_SetLanguage(t *testing.T) {
	tests := []struct {
		name     string
		lang     string
		expected string
	}{
		{name: "known language", lang: "ru", expected: "ru"},
		{name: "system maps to english", lang: "system", expected: "en"},
		{name: "unknown language is ignored", lang: "xx", expected: "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLocalization()
			l.SetLanguage(tt.lang)

			if l.GetCurrentLanguage() != tt.expected {
				t.Errorf("expected language %s, got %s", tt.expected, l.GetCurrentLanguage())
			}
		})
	}
}

func TestLocalization_FallsBackToEnglishThenKey(t *testing.T) {
	l := NewLocalization()
	l.SetLanguage("ru")

	// start caption has no russian translation
	if got := l.GetText(KeyStartCaption); !strings.Contains(got, "Shizuku") {
		t.Errorf("expected english fallback, got %q", got)
	}
	if got := l.GetText("missing_key"); got != "missing_key" {
		t.Errorf("expected key fallback, got %q", got)
	}
}

func TestLocalization_EveryLanguageCoversEnglishFormatKeys(t *testing.T) {
	l := NewLocalization()
	for lang := range l.GetAvailableLanguages() {
		if _, ok := l.texts[lang]; !ok {
			t.Errorf("language %s has no texts", lang)
		}
	}

	for key, text := range l.texts["ru"] {
		en, ok := l.texts["en"][key]
		if !ok {
			t.Errorf("ru key %s missing in en", key)
			continue
		}
		if strings.Count(en, "%") != strings.Count(text, "%") {
			t.Errorf("key %s: verb count differs between en and ru", key)
		}
	}
}

func TestLocalization_Format(t *testing.T) {
	l := NewLocalization()

	got := l.Format(KeyDownloading, strings.Repeat(BarFilled, 2)+strings.Repeat(BarEmpty, 18), 10)
	want := "😁 Downloading… [▓▓░░░░░░░░░░░░░░░░░░] 10%"
	if got != want {
		t.Errorf("Format() = %q, expected %q", got, want)
	}
}
