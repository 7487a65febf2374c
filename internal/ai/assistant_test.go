package ai

import (
	"context"
	"errors"
	"testing"

	"interview-assistant/internal/storage/memory"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChat struct {
	reply string
	err   error
	last  openai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.last = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.reply}}},
	}, nil
}

func first(int) int { return 0 }

func TestMockAssistant(t *testing.T) {
	ctx := context.Background()
	a := NewWithClient(nil, "", 0, nil)
	a.pick = first

	q, err := a.GenerateQuestion(ctx, QuestionRequest{Type: "behavioral"})
	require.NoError(t, err)
	assert.Equal(t, mockQuestions["behavioral"][0], q.Question)
	assert.Equal(t, "medium", q.Difficulty)
	assert.False(t, q.AIGenerated)
	require.NotNil(t, q.Context)
	assert.Equal(t, mockQuestionContext, *q.Context)

	q, err = a.GenerateQuestion(ctx, QuestionRequest{Type: "general"})
	require.NoError(t, err)
	assert.Equal(t, mockQuestions["technical"][0], q.Question)

	s, err := a.GenerateSuggestion(ctx, SuggestionRequest{Transcript: "hello"})
	require.NoError(t, err)
	assert.Equal(t, 0.7, s.Confidence)
	assert.Equal(t, "follow-up-question", s.Type)

	an, err := a.AnalyzeResponse(ctx, AnalysisRequest{Response: "r", Question: "q"})
	require.NoError(t, err)
	assert.Equal(t, 7.0, an.Score)

	high := 7.0
	fb, err := a.GenerateFeedback(ctx, FeedbackRequest{Transcript: "t", OverallScore: &high})
	require.NoError(t, err)
	assert.Equal(t, "hire", fb.Recommendation)

	fb, err = a.GenerateFeedback(ctx, FeedbackRequest{Transcript: "t"})
	require.NoError(t, err)
	assert.Equal(t, "no-hire", fb.Recommendation)
}

func TestLiveAssistant(t *testing.T) {
	ctx := context.Background()
	chat := &fakeChat{reply: "  What is a goroutine?  "}
	a := NewWithClient(chat, "gpt-4o-mini", 0.7, nil)

	q, err := a.GenerateQuestion(ctx, QuestionRequest{Position: "Go Developer", Context: "concurrency"})
	require.NoError(t, err)
	assert.Equal(t, "What is a goroutine?", q.Question)
	assert.True(t, q.AIGenerated)
	assert.Equal(t, "concurrency", *q.Context)
	assert.Equal(t, "gpt-4o-mini", chat.last.Model)
	assert.Contains(t, chat.last.Messages[0].Content, "Go Developer")

	s, err := a.GenerateSuggestion(ctx, SuggestionRequest{Transcript: "..."})
	require.NoError(t, err)
	assert.Equal(t, 0.85, s.Confidence)

	chat.reply = "```json\n{\"score\": 9, \"strengths\": [\"depth\"], \"sentiment\": {\"positive\": 0.9}}\n```"
	an, err := a.AnalyzeResponse(ctx, AnalysisRequest{Response: "r", Question: "q"})
	require.NoError(t, err)
	assert.Equal(t, 9.0, an.Score)
	assert.Equal(t, []string{"depth"}, an.Strengths)
	assert.True(t, an.AIGenerated)
	assert.Empty(t, an.Note)
	require.NotNil(t, chat.last.ResponseFormat)

	chat.reply = "not json"
	an, err = a.AnalyzeResponse(ctx, AnalysisRequest{Response: "r", Question: "q"})
	require.NoError(t, err)
	assert.Equal(t, fallbackAnalysis(), an)

	low := 5.0
	fb, err := a.GenerateFeedback(ctx, FeedbackRequest{Transcript: "t", OverallScore: &low})
	require.NoError(t, err)
	assert.Equal(t, "no-hire", fb.Recommendation)
	assert.Equal(t, 0.7, fb.Confidence)
	assert.NotEmpty(t, fb.Note)

	chat.err = errors.New("upstream down")
	_, err = a.GenerateSuggestion(ctx, SuggestionRequest{Transcript: "..."})
	assert.ErrorContains(t, err, "upstream down")
}

func TestStatusIsCached(t *testing.T) {
	ctx := context.Background()
	cache := memory.NewCache()

	st := NewWithClient(&fakeChat{}, "gpt-4o-mini", 0, cache).Status(ctx)
	assert.True(t, st.OpenAIConfigured)
	assert.Equal(t, "connected", st.Status)
	assert.Equal(t, 1, cache.Len())

	// a mock assistant sharing the cache sees the cached status
	st = NewWithClient(nil, "", 0, cache).Status(ctx)
	assert.Equal(t, "connected", st.Status)

	st = NewWithClient(nil, "", 0, nil).Status(ctx)
	assert.Equal(t, "not-configured", st.Status)
	assert.True(t, st.Features.FeedbackGeneration)
}
