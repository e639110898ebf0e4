package conversations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banxian-ai/server/internal/agent/model"
)

type memoryRepo struct {
	messages   map[string][]*schema.Message
	replaceErr error
	replaced   int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{messages: make(map[string][]*schema.Message)}
}

func (r *memoryRepo) AddMessage(_ context.Context, sessionKey string, message *schema.Message) error {
	r.messages[sessionKey] = append(r.messages[sessionKey], message)
	return nil
}

func (r *memoryRepo) LoadHistory(_ context.Context, sessionKey string) (*model.ConversationHistory, error) {
	msgs := make([]*schema.Message, len(r.messages[sessionKey]))
	copy(msgs, r.messages[sessionKey])
	return &model.ConversationHistory{SessionKey: sessionKey, Messages: msgs}, nil
}

func (r *memoryRepo) ReplaceHistory(_ context.Context, sessionKey string, messages []*schema.Message) error {
	if r.replaceErr != nil {
		return r.replaceErr
	}
	r.replaced++
	r.messages[sessionKey] = messages
	return nil
}

func (r *memoryRepo) ClearHistory(_ context.Context, sessionKey string) error {
	delete(r.messages, sessionKey)
	return nil
}

func (r *memoryRepo) GetMessageCount(_ context.Context, sessionKey string) (int, error) {
	return len(r.messages[sessionKey]), nil
}

type scriptedGenerator struct {
	content string
	err     error
	prompts []string
}

func (g *scriptedGenerator) Generate(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	for _, m := range input {
		g.prompts = append(g.prompts, m.Content)
	}
	if g.err != nil {
		return nil, g.err
	}
	return schema.AssistantMessage(g.content, nil), nil
}

func seedTurns(t *testing.T, repo *memoryRepo, sessionKey string, turns int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < turns; i++ {
		require.NoError(t, repo.AddMessage(ctx, sessionKey, schema.UserMessage(fmt.Sprintf("问题%d", i))))
		require.NoError(t, repo.AddMessage(ctx, sessionKey, schema.AssistantMessage(fmt.Sprintf("回答%d", i), nil)))
	}
}

func TestAppendAndLoadRoundTrip(t *testing.T) {
	repo := newMemoryRepo()
	m := NewManager(repo, &scriptedGenerator{}, model.ConversationConfig{SummarizeThreshold: 30, TokenBudget: 100000})
	ctx := context.Background()

	require.NoError(t, m.Append(ctx, "s1", "今年运势如何", "且听老夫细细道来"))
	require.NoError(t, m.Append(ctx, "s1", "那明年呢", "明年另有乾坤"))

	msgs, err := m.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, schema.User, msgs[0].Role)
	assert.Equal(t, "今年运势如何", msgs[0].Content)
	assert.Equal(t, schema.Assistant, msgs[3].Role)
	assert.Equal(t, "明年另有乾坤", msgs[3].Content)
}

func TestLoadSummarizesPastThreshold(t *testing.T) {
	repo := newMemoryRepo()
	gen := &scriptedGenerator{content: "用户多次询问运势，老夫均已解答。"}
	m := NewManager(repo, gen, model.ConversationConfig{SummarizeThreshold: 30, TokenBudget: 100000})
	ctx := context.Background()

	seedTurns(t, repo, "s1", 16) // 32 messages, past the 30-message threshold

	msgs, err := m.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, schema.Assistant, msgs[0].Role)
	assert.Equal(t, "用户多次询问运势，老夫均已解答。", msgs[0].Content)

	// stored history collapsed too
	n, err := repo.GetMessageCount(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, repo.replaced)

	// the summarization payload carried the dialogue with role prefixes
	joined := strings.Join(gen.prompts, "\n")
	assert.Contains(t, joined, "用户: 问题0")
	assert.Contains(t, joined, "周大师: 回答15")
}

func TestLoadBelowThresholdDoesNotSummarize(t *testing.T) {
	repo := newMemoryRepo()
	gen := &scriptedGenerator{content: "不应被调用"}
	m := NewManager(repo, gen, model.ConversationConfig{SummarizeThreshold: 30, TokenBudget: 100000})
	ctx := context.Background()

	seedTurns(t, repo, "s1", 15) // exactly 30 messages, not past the threshold

	msgs, err := m.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, msgs, 30)
	assert.Zero(t, repo.replaced)
	assert.Empty(t, gen.prompts)
}

func TestSummarizeFailureKeepsRawHistory(t *testing.T) {
	repo := newMemoryRepo()
	gen := &scriptedGenerator{err: errors.New("model unavailable")}
	m := NewManager(repo, gen, model.ConversationConfig{SummarizeThreshold: 30, TokenBudget: 100000})
	ctx := context.Background()

	seedTurns(t, repo, "s1", 16)

	msgs, err := m.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, msgs, 32)

	n, err := repo.GetMessageCount(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 32, n)
}

func TestReplaceFailureKeepsRawHistory(t *testing.T) {
	repo := newMemoryRepo()
	repo.replaceErr = errors.New("redis down")
	gen := &scriptedGenerator{content: "摘要"}
	m := NewManager(repo, gen, model.ConversationConfig{SummarizeThreshold: 30, TokenBudget: 100000})
	ctx := context.Background()

	seedTurns(t, repo, "s1", 16)

	msgs, err := m.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, msgs, 32)
}

func TestTrimToBudgetKeepsNewestTurns(t *testing.T) {
	msgs := []*schema.Message{
		schema.UserMessage(strings.Repeat("早", 50)),
		schema.AssistantMessage(strings.Repeat("答", 50), nil),
		schema.UserMessage(strings.Repeat("晚", 50)),
	}

	trimmed := trimToBudget(msgs, 110)
	require.Len(t, trimmed, 2)
	assert.Equal(t, msgs[1].Content, trimmed[0].Content)
	assert.Equal(t, msgs[2].Content, trimmed[1].Content)
}

func TestTrimToBudgetAlwaysKeepsMostRecent(t *testing.T) {
	msgs := []*schema.Message{
		schema.UserMessage(strings.Repeat("旧", 10)),
		schema.UserMessage(strings.Repeat("新", 500)),
	}

	trimmed := trimToBudget(msgs, 100)
	require.Len(t, trimmed, 1)
	assert.Equal(t, msgs[1].Content, trimmed[0].Content)
}
