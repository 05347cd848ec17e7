package platform

import (
	"regexp"
	"strings"
)

// SupportedLinkPattern matches the links the bot offers to download
const SupportedLinkPattern = `(https?://)?(www\.)?(youtube\.com|youtu\.be)/`

var supportedLink = regexp.MustCompile(SupportedLinkPattern)

// IsSupportedLink reports whether text contains a supported link
func IsSupportedLink(text string) bool {
	return supportedLink.MatchString(text)
}

// IsCommand reports whether text is a bot command
func IsCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "/")
}
