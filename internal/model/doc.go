package model

// Package model defines domain data structures used across the bot: download
// sessions and their stages, media formats offered by the extractor, fetch
// specifications, progress events, and AFK records. Structures carry explicit
// state transitions and no transport-specific fields.
