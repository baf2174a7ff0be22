package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateDigits(t *testing.T) {
	valid := []string{"1234", "9876", "1928", "5671"}
	for _, v := range valid {
		assert.NoError(t, ValidateDigits(v), v)
	}

	invalid := map[string]string{
		"1123":  "duplicate digit",
		"1230":  "digit 0 not allowed",
		"12":    "too short",
		"12345": "too long",
		"":      "empty",
		"abcd":  "not digits",
		"123a":  "mixed",
		"0123":  "leading zero",
		"99":    "short with duplicate",
		"１234":  "full-width digit",
	}
	for v, reason := range invalid {
		assert.ErrorIs(t, ValidateDigits(v), ErrInvalidDigits, reason)
	}
}

func TestMatchStatusIsTerminal(t *testing.T) {
	assert.False(t, MatchStatusWaiting.IsTerminal())
	assert.False(t, MatchStatusReady.IsTerminal())
	assert.False(t, MatchStatusPlaying.IsTerminal())
	assert.True(t, MatchStatusFinished.IsTerminal())
	assert.True(t, MatchStatusAbandoned.IsTerminal())
}
