package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banxian-ai/server/internal/agent/dispatch"
	"github.com/banxian-ai/server/internal/agent/model"
)

type fakeClassifier struct {
	mood model.Mood
}

func (f *fakeClassifier) Classify(context.Context, string) model.Mood { return f.mood }

type fakeDispatcher struct {
	answer  string
	err     error
	delay   time.Duration
	mu      sync.Mutex
	running int
	maxSeen int
}

func (f *fakeDispatcher) Run(_ context.Context, _ string, _ []*schema.Message, _ string) (string, error) {
	f.mu.Lock()
	f.running++
	if f.running > f.maxSeen {
		f.maxSeen = f.running
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.running--
	f.mu.Unlock()

	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type fakeConversations struct {
	mu       sync.Mutex
	loadErr  error
	appended [][2]string
}

func (f *fakeConversations) Load(context.Context, string) ([]*schema.Message, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return nil, nil
}

func (f *fakeConversations) Append(_ context.Context, _, userText, answer string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, [2]string{userText, answer})
	return nil
}

type fakeSpeech struct {
	mu        sync.Mutex
	answers   []string
	styles    []string
	artifacts []string
}

func (f *fakeSpeech) Schedule(answer, voiceStyle, artifactID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, answer)
	f.styles = append(f.styles, voiceStyle)
	f.artifacts = append(f.artifacts, artifactID)
}

func TestHandleTurn(t *testing.T) {
	conv := &fakeConversations{}
	sp := &fakeSpeech{}
	ag := New(&fakeDispatcher{answer: "大吉之兆"}, &fakeClassifier{mood: model.MoodAngry}, conv, sp)

	result, err := ag.HandleTurn(context.Background(), "alice", "我今天运势如何")
	require.NoError(t, err)

	assert.Equal(t, "大吉之兆", result.Answer)
	assert.Equal(t, model.MoodAngry, result.Mood)
	assert.NotEmpty(t, result.ArtifactID)

	require.Len(t, conv.appended, 1)
	assert.Equal(t, [2]string{"我今天运势如何", "大吉之兆"}, conv.appended[0])

	require.Len(t, sp.artifacts, 1)
	assert.Equal(t, result.ArtifactID, sp.artifacts[0])
	assert.Equal(t, "大吉之兆", sp.answers[0])
	assert.Equal(t, "angry", sp.styles[0], "voice style must follow the classified mood")
}

func TestHandleTurnExhaustedLoopAnswersAndPersists(t *testing.T) {
	conv := &fakeConversations{}
	sp := &fakeSpeech{}
	ag := New(&fakeDispatcher{err: dispatch.ErrLoopExhausted}, &fakeClassifier{mood: model.MoodNeutral}, conv, sp)

	result, err := ag.HandleTurn(context.Background(), "alice", "算命")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Answer)

	// the fallback turn still lands in history so the session stays coherent
	require.Len(t, conv.appended, 1)
	assert.Equal(t, result.Answer, conv.appended[0][1])
}

func TestHandleTurnHardErrorPropagates(t *testing.T) {
	conv := &fakeConversations{}
	ag := New(&fakeDispatcher{err: errors.New("model down")}, &fakeClassifier{}, conv, &fakeSpeech{})

	_, err := ag.HandleTurn(context.Background(), "alice", "算命")
	require.Error(t, err)
	assert.Empty(t, conv.appended)
}

func TestHandleTurnLoadErrorPropagates(t *testing.T) {
	conv := &fakeConversations{loadErr: errors.New("redis down")}
	ag := New(&fakeDispatcher{answer: "x"}, &fakeClassifier{}, conv, &fakeSpeech{})

	_, err := ag.HandleTurn(context.Background(), "alice", "算命")
	assert.Error(t, err)
}

func TestHandleTurnSerializesSameSession(t *testing.T) {
	disp := &fakeDispatcher{answer: "答", delay: 30 * time.Millisecond}
	ag := New(disp, &fakeClassifier{}, &fakeConversations{}, &fakeSpeech{})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ag.HandleTurn(context.Background(), "same-session", "问")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	disp.mu.Lock()
	defer disp.mu.Unlock()
	assert.Equal(t, 1, disp.maxSeen, "turns of one session must never overlap")
}

func TestHandleTurnDistinctSessionsRunConcurrently(t *testing.T) {
	disp := &fakeDispatcher{answer: "答", delay: 100 * time.Millisecond}
	ag := New(disp, &fakeClassifier{}, &fakeConversations{}, &fakeSpeech{})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = ag.HandleTurn(context.Background(), "s1", "问")
	}()
	go func() {
		defer wg.Done()
		_, _ = ag.HandleTurn(context.Background(), "s2", "问")
	}()
	wg.Wait()

	disp.mu.Lock()
	defer disp.mu.Unlock()
	assert.Equal(t, 2, disp.maxSeen, "distinct sessions must not share a lock")
}
