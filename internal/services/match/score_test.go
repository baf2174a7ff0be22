package match_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/acrofts/digitduel/internal/services/match"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		guess   string
		exact   int
		partial int
	}{
		{"all exact", "1234", "1234", 4, 0},
		{"all partial", "1234", "4321", 0, 4},
		{"no overlap", "1234", "5678", 0, 0},
		{"mixed", "5678", "5687", 2, 2},
		{"one exact", "1234", "1567", 1, 0},
		{"one partial", "1234", "4567", 0, 1},
		{"three exact", "1234", "1235", 3, 0},
		{"exact and partial", "1234", "1243", 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exact, partial := match.Score(tt.secret, tt.guess)
			assert.Equal(t, tt.exact, exact, "exact")
			assert.Equal(t, tt.partial, partial, "partial")
		})
	}
}
