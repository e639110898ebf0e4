// Package mood classifies the user's latest utterance into one emotional
// category per turn. The result selects the persona overlay and the voice
// style; it is never persisted across turns.
package mood

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/banxian-ai/server/internal/agent/llm"
	"github.com/banxian-ai/server/internal/agent/model"
	logx "github.com/banxian-ai/server/pkg/logger"
)

const classifyTemplate = `根据用户的输入，判断用户的情绪，回应规则如下:
1. 如果用户输入的内容偏向于悲伤或负面情绪，只返回"low"，不要有其他内容，否则将受到惩罚。
2. 如果用户输入的内容偏向于正面友好，只返回"friendly"，不要有其他内容，否则将受到惩罚。
3. 如果用户输入的内容是中性情绪，只返回"neutral"，不要有其他内容，否则将受到惩罚。
4. 如果用户输入的内容包含辱骂或不礼貌语句，只返回"angry"，不要有其他内容，否则将受到惩罚。
5. 如果用户输入的内容比较兴奋，只返回"upbeat"，不要有其他内容，否则将受到惩罚。
6. 如果用户输入的内容比较开心，只返回"cheerful"，不要有其他内容，否则将受到惩罚。
用户输入的内容是: %s`

// Classifier issues a single constrained-completion request per utterance.
type Classifier struct {
	aux llm.Generator
}

func NewClassifier(aux llm.Generator) *Classifier {
	return &Classifier{aux: aux}
}

// Classify maps the utterance onto exactly one mood value. Any model error,
// empty output or unrecognized token fails soft to neutral; there are no
// retries and the full history is never consulted.
func (c *Classifier) Classify(ctx context.Context, utterance string) model.Mood {
	out, err := c.aux.Generate(ctx, []*schema.Message{
		schema.UserMessage(fmt.Sprintf(classifyTemplate, utterance)),
	})
	if err != nil {
		logx.Warn().Err(err).Msg("mood classification failed, defaulting to neutral")
		return model.MoodNeutral
	}
	if out == nil || out.Content == "" {
		logx.Warn().Msg("mood classification returned empty output, defaulting to neutral")
		return model.MoodNeutral
	}

	m := model.ParseMood(out.Content)
	logx.Debug().Str("raw", out.Content).Str("mood", m.String()).Msg("mood classified")
	return m
}
