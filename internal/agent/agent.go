// Package agent ties the turn pipeline together: mood classification,
// persona rendering, history loading, the dispatch loop, turn persistence
// and the asynchronous speech side effect.
package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/banxian-ai/server/internal/agent/dispatch"
	"github.com/banxian-ai/server/internal/agent/model"
	"github.com/banxian-ai/server/internal/agent/persona"
	logx "github.com/banxian-ai/server/pkg/logger"
)

// exhaustedAnswer is the persona-voiced fallback when a turn hits the tool
// call ceiling without settling. The session stays intact.
const exhaustedAnswer = "哎呀，老夫掐指一算，今日天机混沌，实在算不出个所以然来。施主不妨换个问法，或稍后再来问老夫。"

// Classifier maps one utterance to a mood.
type Classifier interface {
	Classify(ctx context.Context, utterance string) model.Mood
}

// Speech schedules the asynchronous audio rendition of a final answer.
type Speech interface {
	Schedule(answer, voiceStyle, artifactID string)
}

// Dispatcher runs the tool-calling state machine for one turn.
type Dispatcher interface {
	Run(ctx context.Context, system string, history []*schema.Message, query string) (string, error)
}

type Agent struct {
	loop       Dispatcher
	classifier Classifier
	conv       ConversationManager
	speech     Speech

	locks sync.Map // sessionKey -> *sync.Mutex
}

// ConversationManager is the history surface HandleTurn drives.
type ConversationManager interface {
	Load(ctx context.Context, sessionKey string) ([]*schema.Message, error)
	Append(ctx context.Context, sessionKey, userText, answer string) error
}

func New(loop Dispatcher, classifier Classifier, conv ConversationManager, speech Speech) *Agent {
	return &Agent{
		loop:       loop,
		classifier: classifier,
		conv:       conv,
		speech:     speech,
	}
}

// sessionLock returns the mutex serializing turns of one session. Concurrent
// requests on the same session run strictly one turn at a time.
func (a *Agent) sessionLock(sessionKey string) *sync.Mutex {
	mu, _ := a.locks.LoadOrStore(sessionKey, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// HandleTurn runs one complete user turn and returns the answer along with
// the artifact id the audio rendition will appear under.
func (a *Agent) HandleTurn(ctx context.Context, sessionKey, userText string) (*model.TurnResult, error) {
	mu := a.sessionLock(sessionKey)
	mu.Lock()
	defer mu.Unlock()

	mood := a.classifier.Classify(ctx, userText)

	system, err := persona.RenderSystem(ctx, mood)
	if err != nil {
		logx.Error().Err(err).Str("sessionKey", sessionKey).Msg("persona render failed")
		return nil, err
	}

	history, err := a.conv.Load(ctx, sessionKey)
	if err != nil {
		logx.Error().Err(err).Str("sessionKey", sessionKey).Msg("history load failed")
		return nil, err
	}

	answer, err := a.loop.Run(ctx, system, history, userText)
	if err != nil {
		if !errors.Is(err, dispatch.ErrLoopExhausted) {
			return nil, err
		}
		logx.Warn().Str("sessionKey", sessionKey).Msg("turn exhausted tool budget, answering with fallback")
		answer = exhaustedAnswer
	}

	if err := a.conv.Append(ctx, sessionKey, userText, answer); err != nil {
		logx.Error().Err(err).Str("sessionKey", sessionKey).Msg("turn persistence failed")
		return nil, err
	}

	artifactID := uuid.NewString()
	a.speech.Schedule(answer, persona.VoiceStyle(mood), artifactID)

	logx.Info().Str("sessionKey", sessionKey).Str("mood", mood.String()).Str("artifactID", artifactID).Msg("turn completed")
	return &model.TurnResult{
		Answer:     answer,
		ArtifactID: artifactID,
		Mood:       mood,
	}, nil
}
