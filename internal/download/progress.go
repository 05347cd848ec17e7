package download

import (
	"math"
	"strings"
	"sync"

	"github.com/ytget/shizuku-bot/internal/messages"
)

// MinProgressDelta is the smallest percentage change worth an outbound edit
const MinProgressDelta = 2.0

// progressCursors holds the last rendered percentage per callback query
type progressCursors struct {
	mu   sync.Mutex
	last map[string]float64
}

func newProgressCursors() *progressCursors {
	return &progressCursors{last: make(map[string]float64)}
}

// advance records percent for key and reports whether it should be rendered.
// A key without a cursor starts from -1.
func (p *progressCursors) advance(key string, percent float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	last, ok := p.last[key]
	if !ok {
		last = -1
	}
	if math.Abs(percent-last) < MinProgressDelta {
		return false
	}
	p.last[key] = percent
	return true
}

func (p *progressCursors) clear(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.last, key)
}

func (p *progressCursors) has(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.last[key]
	return ok
}

// clampPercent keeps percent within [0, 100]
func clampPercent(percent float64) float64 {
	if math.IsNaN(percent) || percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// RenderBar draws a fixed-width bar proportional to percent
func RenderBar(percent float64) string {
	filled := int(clampPercent(percent) / 100 * messages.BarSegments)
	return strings.Repeat(messages.BarFilled, filled) + strings.Repeat(messages.BarEmpty, messages.BarSegments-filled)
}
