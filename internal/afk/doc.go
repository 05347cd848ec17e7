package afk

// Package afk keeps one away-from-keyboard record per user in SQLite and
// renders the replies for going away, coming back, and being mentioned while
// away.
