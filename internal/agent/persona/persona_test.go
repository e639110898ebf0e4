package persona

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banxian-ai/server/internal/agent/model"
)

func TestRenderSystemNeutralHasNoOverlay(t *testing.T) {
	sys, err := RenderSystem(context.Background(), model.MoodNeutral)
	require.NoError(t, err)
	assert.Contains(t, sys, "周半仙")
	assert.NotContains(t, sys, "{{.WhoYouAre}}")
}

func TestRenderSystemMergesMoodOverlay(t *testing.T) {
	for _, m := range model.Moods {
		sys, err := RenderSystem(context.Background(), m)
		require.NoError(t, err)
		if overlay := Overlay(m); overlay != "" {
			assert.Contains(t, sys, overlay, m.String())
		}
	}
}

func TestVoiceStyleMapping(t *testing.T) {
	tests := map[model.Mood]string{
		model.MoodNeutral:  "chat",
		model.MoodUpbeat:   "advertisement_upbeat",
		model.MoodAngry:    "angry",
		model.MoodLow:      "upbeat",
		model.MoodFriendly: "friendly",
		model.MoodCheerful: "cheerful",
	}
	for m, want := range tests {
		assert.Equal(t, want, VoiceStyle(m), m.String())
	}
	// unknown moods fall back to the neutral voice
	assert.Equal(t, "chat", VoiceStyle(model.Mood("ecstatic")))
}

func TestRenderSummarySystemAppendsInstruction(t *testing.T) {
	sys, err := RenderSummarySystem(context.Background())
	require.NoError(t, err)
	assert.Contains(t, sys, SummaryInstruction)
}
