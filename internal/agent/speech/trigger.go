package speech

import (
	"context"
	"strings"
	"time"

	"github.com/banxian-ai/server/internal/storage"
	logx "github.com/banxian-ai/server/pkg/logger"
)

// Trigger schedules synthesis of the spoken rendition after a turn completes.
// The side effect runs detached from the request context so that client
// disconnects never cancel it, and its failures are logged, never surfaced.
type Trigger struct {
	synth   Synthesizer
	store   storage.ObjectStore
	timeout time.Duration
}

func NewTrigger(synth Synthesizer, store storage.ObjectStore, timeout time.Duration) *Trigger {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Trigger{synth: synth, store: store, timeout: timeout}
}

// ArtifactKey is the object key the audio for an artifact id is stored under.
func ArtifactKey(artifactID string) string {
	return "audio/" + artifactID + ".mp3"
}

// Schedule fires the synthesis goroutine for one answer. Markdown emphasis
// markers are stripped from the spoken text only; the written answer keeps
// them.
func (t *Trigger) Schedule(answer, voiceStyle, artifactID string) {
	spoken := strings.ReplaceAll(answer, "*", "")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()

		audio, err := t.synth.Synthesize(ctx, spoken, voiceStyle)
		if err != nil {
			logx.Error().Err(err).Str("artifactID", artifactID).Msg("speech synthesis failed")
			return
		}
		if err := t.store.Put(ctx, ArtifactKey(artifactID), audio); err != nil {
			logx.Error().Err(err).Str("artifactID", artifactID).Msg("failed to store audio artifact")
			return
		}
		logx.Debug().Str("artifactID", artifactID).Int("bytes", len(audio)).Msg("audio artifact stored")
	}()
}
