package download

// Package download implements the conversational download workflow: a link
// opens a session, inline buttons walk it through media type, container and
// quality, and the chosen encoding is fetched through yt-dlp and delivered
// back to the chat. The Manager owns the session registry and the progress
// cursors; transport, format enumeration and fetching are collaborators.
