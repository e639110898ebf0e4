package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSynth struct {
	mu     sync.Mutex
	texts  []string
	styles []string
	audio  []byte
	err    error
}

func (f *fakeSynth) Synthesize(_ context.Context, text, voiceStyle string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	f.styles = append(f.styles, voiceStyle)
	return f.audio, f.err
}

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (s *memoryStore) Put(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[key] = data
	return nil
}

func (s *memoryStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestScheduleStoresArtifact(t *testing.T) {
	synth := &fakeSynth{audio: []byte("mp3-bytes")}
	store := newMemoryStore()
	trigger := NewTrigger(synth, store, 5*time.Second)

	trigger.Schedule("施主今年大吉", "chat", "abc-123")

	waitFor(t, func() bool {
		ok, _ := store.Exists(context.Background(), ArtifactKey("abc-123"))
		return ok
	})

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, []byte("mp3-bytes"), store.objects["audio/abc-123.mp3"])
}

func TestScheduleStripsMarkdownForSpeechOnly(t *testing.T) {
	synth := &fakeSynth{audio: []byte("a")}
	store := newMemoryStore()
	trigger := NewTrigger(synth, store, 5*time.Second)

	trigger.Schedule("**大吉**之兆，*切记*行善", "chat", "id-1")

	waitFor(t, func() bool {
		synth.mu.Lock()
		defer synth.mu.Unlock()
		return len(synth.texts) == 1
	})

	synth.mu.Lock()
	defer synth.mu.Unlock()
	assert.Equal(t, "大吉之兆，切记行善", synth.texts[0])
	assert.Equal(t, "chat", synth.styles[0])
}

func TestScheduleSynthesisFailureStoresNothing(t *testing.T) {
	synth := &fakeSynth{err: errors.New("tts unavailable")}
	store := newMemoryStore()
	trigger := NewTrigger(synth, store, 5*time.Second)

	trigger.Schedule("大吉", "chat", "id-2")

	waitFor(t, func() bool {
		synth.mu.Lock()
		defer synth.mu.Unlock()
		return len(synth.texts) == 1
	})

	// give the goroutine a beat to (not) store anything
	time.Sleep(50 * time.Millisecond)
	ok, err := store.Exists(context.Background(), ArtifactKey("id-2"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArtifactKey(t *testing.T) {
	assert.Equal(t, "audio/xyz.mp3", ArtifactKey("xyz"))
}
