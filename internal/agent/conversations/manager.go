// Package conversations owns per-session dialogue history: loading, the
// 30-turn summarization collapse, the token budget applied to model context,
// and turn persistence.
package conversations

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"

	"github.com/banxian-ai/server/internal/agent/llm"
	"github.com/banxian-ai/server/internal/agent/model"
	"github.com/banxian-ai/server/internal/agent/persona"
	logx "github.com/banxian-ai/server/pkg/logger"
)

type Manager struct {
	repo               model.ConversationRepository
	aux                llm.Generator
	summarizeThreshold int
	tokenBudget        int
}

func NewManager(repo model.ConversationRepository, aux llm.Generator, config model.ConversationConfig) *Manager {
	return &Manager{
		repo:               repo,
		aux:                aux,
		summarizeThreshold: config.SummarizeThreshold,
		tokenBudget:        config.TokenBudget,
	}
}

// Load fetches the stored turn sequence for a session, collapsing it into a
// single summary turn once it exceeds the threshold, and returns the
// sequence bounded to the model-context token budget. The stored sequence is
// only ever replaced when summarization fully succeeds.
func (m *Manager) Load(ctx context.Context, sessionKey string) ([]*schema.Message, error) {
	history, err := m.repo.LoadHistory(ctx, sessionKey)
	if err != nil {
		return nil, err
	}

	msgs := history.Messages
	if m.summarizeThreshold > 0 && len(msgs) > m.summarizeThreshold {
		msgs = m.summarize(ctx, sessionKey, msgs)
	}

	return trimToBudget(msgs, m.tokenBudget), nil
}

// Append persists one completed turn pair after the dispatch loop terminates.
func (m *Manager) Append(ctx context.Context, sessionKey, userText, answer string) error {
	if err := m.repo.AddMessage(ctx, sessionKey, schema.UserMessage(userText)); err != nil {
		return err
	}
	return m.repo.AddMessage(ctx, sessionKey, schema.AssistantMessage(answer, nil))
}

// Clear drops the stored history of a session.
func (m *Manager) Clear(ctx context.Context, sessionKey string) error {
	if err := m.repo.ClearHistory(ctx, sessionKey); err != nil {
		return err
	}
	logx.Info().Str("sessionKey", sessionKey).Msg("conversation history cleared")
	return nil
}

// summarize collapses the raw turns into one synthetic assistant turn. On
// any failure the original raw sequence is returned and left stored intact.
func (m *Manager) summarize(ctx context.Context, sessionKey string, raw []*schema.Message) []*schema.Message {
	sys, err := persona.RenderSummarySystem(ctx)
	if err != nil {
		logx.Error().Err(err).Str("sessionKey", sessionKey).Msg("summary prompt render failed, keeping raw history")
		return raw
	}

	out, err := m.aux.Generate(ctx, []*schema.Message{
		schema.SystemMessage(sys),
		schema.UserMessage(renderTurns(raw)),
	})
	if err != nil || out == nil || strings.TrimSpace(out.Content) == "" {
		logx.Error().Err(err).Str("sessionKey", sessionKey).Msg("history summarization failed, keeping raw history")
		return raw
	}

	summary := schema.AssistantMessage(out.Content, nil)
	if err := m.repo.ReplaceHistory(ctx, sessionKey, []*schema.Message{summary}); err != nil {
		logx.Error().Err(err).Str("sessionKey", sessionKey).Msg("history replace failed, keeping raw history")
		return raw
	}

	logx.Debug().Str("sessionKey", sessionKey).Int("collapsed", len(raw)).Msg("history summarized")
	return []*schema.Message{summary}
}

func renderTurns(msgs []*schema.Message) string {
	var b strings.Builder
	for _, msg := range msgs {
		if msg == nil || msg.Content == "" {
			continue
		}
		switch msg.Role {
		case schema.User:
			b.WriteString("用户: ")
		case schema.Assistant:
			b.WriteString("周大师: ")
		default:
			continue
		}
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// trimToBudget drops the oldest turns until the estimated token total fits
// the budget, always preserving at least the most recent turn.
func trimToBudget(msgs []*schema.Message, budget int) []*schema.Message {
	if budget <= 0 || len(msgs) == 0 {
		result := make([]*schema.Message, len(msgs))
		copy(result, msgs)
		return result
	}

	total := 0
	start := len(msgs)
	for i := len(msgs) - 1; i >= 0; i-- {
		cost := estimateTokens(msgs[i])
		if total+cost > budget && start < len(msgs) {
			break
		}
		total += cost
		start = i
	}

	result := make([]*schema.Message, len(msgs)-start)
	copy(result, msgs[start:])
	return result
}

// estimateTokens is a rough CJK-weighted estimate; exact counts are not
// required, only a stable bound on context growth.
func estimateTokens(msg *schema.Message) int {
	if msg == nil {
		return 0
	}
	n := utf8.RuneCountInString(msg.Content)
	if n == 0 {
		return 1
	}
	return n
}
