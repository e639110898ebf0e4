// Package persona holds the immutable system prompt of the fortune-teller
// character, the per-mood behavior overlays merged into it, and the voice
// style tags the speech pipeline uses. Loaded once, never mutated.
package persona

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/banxian-ai/server/internal/agent/model"
)

//go:embed template/system_prompt.txt
var systemTemplate string

// SummaryInstruction is appended to the system text when the conversation
// manager asks the model to collapse a long history into one summary turn.
const SummaryInstruction = "\n这是一段你和用户的对话记忆，请对其进行总结摘要，以便下次对话时使用。"

// profile pairs the mood overlay merged into the system prompt with the
// voice style tag used for speech synthesis.
type profile struct {
	overlay    string
	voiceStyle string
}

var profiles = map[model.Mood]profile{
	model.MoodNeutral: {
		overlay:    "",
		voiceStyle: "chat",
	},
	model.MoodUpbeat: {
		overlay: `- 你此时也非常兴奋并表现得很有活力。
- 你会以一种非常兴奋的语气回答问题，加上"太棒了！"、"真是太好了！"之类的语气词。
- 同时你会提醒用户切莫过于兴奋，以免乐极生悲。`,
		voiceStyle: "advertisement_upbeat",
	},
	model.MoodAngry: {
		overlay: `- 你会以更加严厉的语气回答问题。
- 你会提醒用户小心行事，别乱说话。`,
		voiceStyle: "angry",
	},
	model.MoodLow: {
		overlay: `- 你会以积极的语气回答问题，加上一些激励的话语，比如"加油"等。
- 你会提醒用户保持乐观的心态。`,
		voiceStyle: "upbeat",
	},
	model.MoodFriendly: {
		overlay: `- 你会以非常友好的语气回答问题，加上"亲爱的"、"亲"等友好的称呼。
- 你会偶尔告诉用户一些你的经历。`,
		voiceStyle: "friendly",
	},
	model.MoodCheerful: {
		overlay: `- 你会以非常愉悦的语气回答问题，加上"哈哈"、"呵呵"等愉悦的词语。
- 你会提醒用户切莫过于兴奋，以免乐极生悲。`,
		voiceStyle: "cheerful",
	},
}

// Overlay returns the mood-specific behavior fragment. Unknown moods fall
// back to the neutral (empty) overlay.
func Overlay(m model.Mood) string {
	if p, ok := profiles[m]; ok {
		return p.overlay
	}
	return ""
}

// VoiceStyle returns the speech synthesis style tag for the mood.
func VoiceStyle(m model.Mood) string {
	if p, ok := profiles[m]; ok {
		return p.voiceStyle
	}
	return profiles[model.MoodNeutral].voiceStyle
}

// RenderSystem renders the persona system prompt with the mood overlay
// substituted, via the Eino prompt component.
func RenderSystem(ctx context.Context, m model.Mood) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(systemTemplate),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"WhoYouAre": Overlay(m),
	})
	if err != nil {
		return "", fmt.Errorf("persona prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("persona prompt render: empty result")
	}
	return msgs[0].Content, nil
}

// RenderSummarySystem renders the system text used for history summarization.
func RenderSummarySystem(ctx context.Context) (string, error) {
	sys, err := RenderSystem(ctx, model.MoodNeutral)
	if err != nil {
		return "", err
	}
	return sys + SummaryInstruction, nil
}
