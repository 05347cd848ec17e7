package model

import (
	"fmt"
	"time"
)

// AFKRecord is the away-from-keyboard status of one user
type AFKRecord struct {
	UserID       int64
	Since        time.Time
	Reason       string // empty when no reason was given
	MsgCount     int    // replies addressed to the user while away
	StickerCount int    // sticker replies addressed to the user while away
}

// HasReason returns true if the user gave a reason
func (r *AFKRecord) HasReason() bool {
	return r.Reason != ""
}

// GetAwayString returns the time away formatted as "1d 2h 3m 4s",
// dropping leading zero units
func (r *AFKRecord) GetAwayString(now time.Time) string {
	delta := now.Sub(r.Since)
	if delta < 0 {
		delta = 0
	}

	total := int(delta.Seconds())
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
