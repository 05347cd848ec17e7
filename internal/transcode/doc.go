package transcode

// Package transcode converts downloaded audio into the container the user
// asked for by running ffmpeg.
