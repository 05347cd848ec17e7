package download

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ytget/shizuku-bot/internal/messages"
)

func TestProgressCursors_Advance(t *testing.T) {
	tests := []struct {
		name     string
		percents []float64
		want     []bool
	}{
		{name: "first event at zero skipped", percents: []float64{0}, want: []bool{false}},
		{name: "first event past delta renders", percents: []float64{2}, want: []bool{true}},
		{name: "small step skipped", percents: []float64{10, 11}, want: []bool{true, false}},
		{name: "step of delta renders", percents: []float64{10, 12}, want: []bool{true, true}},
		{name: "large step renders", percents: []float64{10, 13}, want: []bool{true, true}},
		{name: "small steps accumulate", percents: []float64{10, 11, 12.5}, want: []bool{true, false, true}},
		{name: "repeated value skipped", percents: []float64{50, 50, 50}, want: []bool{true, false, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newProgressCursors()
			for i, p := range tt.percents {
				if got := c.advance("q", p); got != tt.want[i] {
					t.Errorf("event %d (%.1f%%): expected %v, got %v", i, p, tt.want[i], got)
				}
			}
		})
	}
}

func TestProgressCursors_KeysAreIndependent(t *testing.T) {
	c := newProgressCursors()

	c.advance("a", 50)
	if !c.advance("b", 50) {
		t.Error("expected first event of another key to render")
	}

	c.clear("a")
	if c.has("a") {
		t.Error("expected cursor a to be cleared")
	}
	if !c.has("b") {
		t.Error("expected cursor b to be kept")
	}
	if !c.advance("a", 50) {
		t.Error("expected cleared key to start over")
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		percent float64
		filled  int
	}{
		{0, 0},
		{4.9, 0},
		{5, 1},
		{50, 10},
		{99.9, 19},
		{100, 20},
		{150, 20},
		{-3, 0},
	}

	for _, tt := range tests {
		bar := RenderBar(tt.percent)
		if n := utf8.RuneCountInString(bar); n != messages.BarSegments {
			t.Errorf("%.1f%%: expected %d segments, got %d", tt.percent, messages.BarSegments, n)
		}
		if n := strings.Count(bar, messages.BarFilled); n != tt.filled {
			t.Errorf("%.1f%%: expected %d filled, got %d", tt.percent, tt.filled, n)
		}
	}
}
