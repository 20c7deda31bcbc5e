package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// scriptedModel replays canned responses and records what it was sent.
type scriptedModel struct {
	mu      sync.Mutex
	replies []*llms.ContentResponse
	err     error
	calls   [][]llms.MessageContent
}

func (m *scriptedModel) GenerateContent(_ context.Context, msgs []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, msgs)
	if m.err != nil {
		return nil, m.err
	}
	i := len(m.calls) - 1
	if i >= len(m.replies) {
		i = len(m.replies) - 1
	}
	return m.replies[i], nil
}

func textReply(s string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: s}}}
}

func toolReply(id, name, args string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		ToolCalls: []llms.ToolCall{{
			ID:           id,
			Type:         "function",
			FunctionCall: &llms.FunctionCall{Name: name, Arguments: args},
		}},
	}}}
}

func newChatFixture(t *testing.T, model ChatModel) (*ChatService, *toolFixture) {
	t.Helper()
	f := newToolFixture(t)
	svc := NewChatService(f.db, model, f.reg)
	svc.now = func() time.Time { return toolNow }
	return svc, f
}

func TestChatRunsToolsThenAnswers(t *testing.T) {
	model := &scriptedModel{replies: []*llms.ContentResponse{
		toolReply("call-1", "search_food_items", `{"search_term": "burrito"}`),
		textReply("  Worcester has a Burrito Bowl today.  "),
	}}
	svc, _ := newChatFixture(t, model)
	ctx := context.Background()

	resp, err := svc.Chat(ctx, ChatRequest{UserID: "user-1", Message: "anything with burritos?"})
	require.NoError(t, err)
	assert.Equal(t, "Worcester has a Burrito Bowl today.", resp.Response)
	assert.Equal(t, []string{"search_food_items"}, resp.ToolsUsed)
	assert.Equal(t, toolNow.UTC(), resp.Timestamp)

	require.Len(t, model.calls, 2)
	first := model.calls[0]
	require.Len(t, first, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, first[0].Role)
	assert.Contains(t, first[0].Parts[0].(llms.TextContent).Text, "Today is Mon November 10, 2025.")

	second := model.calls[1]
	last := second[len(second)-1]
	assert.Equal(t, llms.ChatMessageTypeTool, last.Role)
	result := last.Parts[0].(llms.ToolCallResponse)
	assert.Equal(t, "call-1", result.ToolCallID)
	assert.Contains(t, result.Content, "Burrito Bowl")

	hist, err := svc.History(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "user", hist[0].Role)
	assert.Equal(t, "assistant", hist[1].Role)
	assert.Equal(t, "Worcester has a Burrito Bowl today.", hist[1].Message)
}

func TestChatReplaysHistory(t *testing.T) {
	model := &scriptedModel{replies: []*llms.ContentResponse{textReply("hi")}}
	svc, _ := newChatFixture(t, model)
	ctx := context.Background()

	_, err := svc.Chat(ctx, ChatRequest{UserID: "user-1", Message: "first"})
	require.NoError(t, err)
	_, err = svc.Chat(ctx, ChatRequest{UserID: "user-1", Message: "second"})
	require.NoError(t, err)

	msgs := model.calls[1]
	require.Len(t, msgs, 4)
	assert.Equal(t, llms.ChatMessageTypeHuman, msgs[1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, msgs[2].Role)
	assert.Equal(t, "second", msgs[3].Parts[0].(llms.TextContent).Text)
}

func TestChatToolErrorsGoBackToTheModel(t *testing.T) {
	model := &scriptedModel{replies: []*llms.ContentResponse{
		toolReply("call-1", "get_order_details", `{"order_id": "nope"}`),
		textReply("I could not find that order."),
	}}
	svc, _ := newChatFixture(t, model)

	resp, err := svc.Chat(context.Background(), ChatRequest{UserID: "user-1", Message: "where is order nope"})
	require.NoError(t, err)
	assert.Equal(t, "I could not find that order.", resp.Response)

	msgs := model.calls[1]
	result := msgs[len(msgs)-1].Parts[0].(llms.ToolCallResponse)
	assert.Equal(t, "Error: order nope not found", result.Content)
}

func TestChatStopsAfterMaxIterations(t *testing.T) {
	model := &scriptedModel{replies: []*llms.ContentResponse{
		toolReply("call", "get_my_orders", "{}"),
	}}
	svc, _ := newChatFixture(t, model)

	resp, err := svc.Chat(context.Background(), ChatRequest{UserID: "user-1", Message: "loop forever"})
	require.NoError(t, err)
	assert.Equal(t, "Sorry, I could not finish that request. Could you rephrase it?", resp.Response)
	assert.Len(t, resp.ToolsUsed, chatMaxIterations)
	assert.Len(t, model.calls, chatMaxIterations)
}

func TestChatFailures(t *testing.T) {
	svc, _ := newChatFixture(t, nil)
	_, err := svc.Chat(context.Background(), ChatRequest{UserID: "user-1", Message: "hello"})
	e := requireKind(t, err, KindUpstream)
	assert.Equal(t, "chat assistant is not configured", e.Message)

	svc, _ = newChatFixture(t, &scriptedModel{err: errors.New("quota exceeded")})
	_, err = svc.Chat(context.Background(), ChatRequest{UserID: "user-1", Message: "hello"})
	requireKind(t, err, KindUpstream)

	_, err = svc.Chat(context.Background(), ChatRequest{UserID: "user-1"})
	e = requireKind(t, err, KindValidation)
	assert.Equal(t, "message", e.Field)
}

func TestChatHistoryLimitsAndClear(t *testing.T) {
	svc, _ := newChatFixture(t, &scriptedModel{replies: []*llms.ContentResponse{textReply("ok")}})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.Chat(ctx, ChatRequest{UserID: "user-1", Message: "ping"})
		require.NoError(t, err)
	}

	hist, err := svc.History(ctx, "user-1", 4)
	require.NoError(t, err)
	assert.Len(t, hist, 4)
	_, err = svc.History(ctx, "user-1", 51)
	requireKind(t, err, KindValidation)

	n, err := svc.ClearHistory(ctx, "user-1")
	require.NoError(t, err)
	assert.EqualValues(t, 6, n)
	hist, err = svc.History(ctx, "user-1", 0)
	require.NoError(t, err)
	assert.Empty(t, hist)
}
