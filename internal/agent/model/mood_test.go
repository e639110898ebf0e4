package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMood(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Mood
	}{
		{name: "exact match", in: "angry", want: MoodAngry},
		{name: "uppercase", in: "FRIENDLY", want: MoodFriendly},
		{name: "surrounding whitespace", in: "  cheerful \n", want: MoodCheerful},
		{name: "low", in: "low", want: MoodLow},
		{name: "upbeat", in: "upbeat", want: MoodUpbeat},
		{name: "empty falls back to neutral", in: "", want: MoodNeutral},
		{name: "prose falls back to neutral", in: "用户看起来很开心，返回 cheerful", want: MoodNeutral},
		{name: "unknown token falls back to neutral", in: "ecstatic", want: MoodNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseMood(tt.in))
		})
	}
}

func TestMoodsCoversEveryConstant(t *testing.T) {
	assert.ElementsMatch(t, Moods, []Mood{
		MoodNeutral, MoodUpbeat, MoodAngry, MoodLow, MoodFriendly, MoodCheerful,
	})
}
