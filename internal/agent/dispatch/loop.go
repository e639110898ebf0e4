// Package dispatch runs the agent turn state machine: the dispatch model
// proposes tool calls, tools resolve to outcomes injected back into context,
// and the loop re-enters the model until it answers in natural language or
// the per-turn call ceiling is hit.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/banxian-ai/server/internal/agent/extract"
	"github.com/banxian-ai/server/internal/agent/model"
	logx "github.com/banxian-ai/server/pkg/logger"
)

// ErrLoopExhausted reports that a turn hit the tool-call ceiling without the
// model producing a final answer.
var ErrLoopExhausted = errors.New("dispatch: tool call limit reached without a final answer")

// State tracks where a turn is inside the dispatch machine. Exposed for
// logging; the machine itself is linear per iteration.
type State int

const (
	StateAwaitingModel State = iota
	StateToolSelected
	StateExecutingTool
	StateFinal
)

func (s State) String() string {
	switch s {
	case StateAwaitingModel:
		return "AWAITING_MODEL"
	case StateToolSelected:
		return "TOOL_SELECTED"
	case StateExecutingTool:
		return "EXECUTING_TOOL"
	case StateFinal:
		return "FINAL"
	default:
		return "UNKNOWN"
	}
}

// ToolExecutor is the catalog surface the loop drives.
type ToolExecutor interface {
	Known(name string) bool
	ExtractArgs(ctx context.Context, name, rawText string) (map[string]string, *extract.MissingFields)
	Invoke(ctx context.Context, name string, args map[string]string, rawQuery string) model.ToolOutcome
}

// Model is the completion surface the loop re-enters each iteration.
type Model interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error)
}

type Loop struct {
	model        Model
	exec         ToolExecutor
	maxToolCalls int
	modelName    string
}

func NewLoop(m Model, exec ToolExecutor, maxToolCalls int, modelName string) *Loop {
	if maxToolCalls <= 0 {
		maxToolCalls = 10
	}
	return &Loop{model: m, exec: exec, maxToolCalls: maxToolCalls, modelName: modelName}
}

// Run executes one turn. The returned string is the model's final natural
// language answer; ErrLoopExhausted is returned when the call ceiling is hit
// before the model settles.
func (l *Loop) Run(ctx context.Context, system string, history []*schema.Message, query string) (string, error) {
	msgs := make([]*schema.Message, 0, len(history)+2)
	msgs = append(msgs, schema.SystemMessage(system))
	msgs = append(msgs, history...)
	msgs = append(msgs, schema.UserMessage(query))

	toolCalls := 0
	seq := 0
	state := StateAwaitingModel

	for {
		out, err := l.model.Generate(ctx, msgs)
		if err != nil {
			logx.Error().Err(err).Str("state", state.String()).Msg("dispatch model call failed")
			return "", fmt.Errorf("dispatch generate: %w", err)
		}
		l.logUsage(out)

		if len(out.ToolCalls) == 0 {
			state = StateFinal
			logx.Debug().Str("state", state.String()).Int("toolCalls", toolCalls).Msg("turn settled")
			return out.Content, nil
		}

		msgs = append(msgs, out)

		for _, tc := range out.ToolCalls {
			toolCalls++
			if toolCalls > l.maxToolCalls {
				logx.Warn().Int("max", l.maxToolCalls).Msg("tool call limit reached")
				return "", ErrLoopExhausted
			}

			state = StateToolSelected
			id := tc.ID
			if id == "" {
				seq++
				id = fmt.Sprintf("call_%d", seq)
			}

			name := tc.Function.Name
			rawQuery := toolQuery(tc.Function.Arguments, query)

			if name == "" || !l.exec.Known(name) {
				logx.Warn().Str("tool", name).Msg("model selected unknown tool")
				msgs = append(msgs, schema.ToolMessage(
					fmt.Sprintf(`{"error":"unknown_tool","message":"工具 %s 不存在，请从可用工具中选择或直接回答"}`, name), id))
				continue
			}

			args, missing := l.exec.ExtractArgs(ctx, name, rawQuery)
			if missing != nil {
				logx.Debug().Str("tool", name).Strs("missing", missing.Fields).Msg("tool arguments incomplete")
				msgs = append(msgs, schema.ToolMessage(missing.Prompt(), id))
				continue
			}

			state = StateExecutingTool
			outcome := l.exec.Invoke(ctx, name, args, rawQuery)
			msgs = append(msgs, schema.ToolMessage(outcome.Render(), id))
		}

		state = StateAwaitingModel
	}
}

// toolQuery recovers the raw user text from the model's tool arguments,
// falling back to the turn query when the arguments are not usable.
func toolQuery(arguments, fallback string) string {
	if arguments == "" {
		return fallback
	}
	var parsed struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(arguments), &parsed); err == nil && parsed.Query != "" {
		return parsed.Query
	}
	return fallback
}

func (l *Loop) logUsage(msg *schema.Message) {
	if msg == nil || msg.ResponseMeta == nil || msg.ResponseMeta.Usage == nil {
		return
	}
	usage := msg.ResponseMeta.Usage
	ev := logx.Debug().
		Str("model", l.modelName).
		Int("promptTokens", usage.PromptTokens).
		Int("completionTokens", usage.CompletionTokens).
		Int("totalTokens", usage.TotalTokens)
	if model.CostEnabled() {
		in, out, total := model.ComputeCost(usage, model.ResolvePricing(l.modelName))
		ev = ev.Float64("inputCost", in).Float64("outputCost", out).Float64("totalCost", total)
	}
	ev.Msg("dispatch model usage")
}
