package model

import "strings"

// Mood is the emotional category derived from the user's latest utterance.
// It is scoped to a single turn and threaded through the dispatch call as a
// value, never stored as shared instance state.
type Mood string

const (
	MoodNeutral  Mood = "neutral"
	MoodUpbeat   Mood = "upbeat"
	MoodAngry    Mood = "angry"
	MoodLow      Mood = "low"
	MoodFriendly Mood = "friendly"
	MoodCheerful Mood = "cheerful"
)

// Moods lists every recognized mood value.
var Moods = []Mood{MoodNeutral, MoodUpbeat, MoodAngry, MoodLow, MoodFriendly, MoodCheerful}

// ParseMood maps a raw classifier output onto the mood enum. Anything that is
// not an exact (trimmed, lowercased) match falls back to MoodNeutral.
func ParseMood(raw string) Mood {
	s := strings.ToLower(strings.TrimSpace(raw))
	for _, m := range Moods {
		if s == string(m) {
			return m
		}
	}
	return MoodNeutral
}

func (m Mood) String() string {
	return string(m)
}
