package platform

// Package platform contains external tooling glue: the yt-dlp format
// enumerator and fetcher, the supported-link matcher, and filesystem helpers.
