// Package ai proxies interview assistance prompts to an OpenAI-compatible
// chat model and falls back to canned answers when none is configured.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"interview-assistant/internal/config"
	"interview-assistant/internal/constants"
	"interview-assistant/internal/logger"
	"interview-assistant/internal/storage"
	"interview-assistant/internal/tracing"
	"interview-assistant/internal/types"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("interview-assistant/ai")

// ChatClient is the subset of *openai.Client the assistant calls.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type QuestionRequest struct {
	Position   string `json:"position"`
	Difficulty string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Type       string `json:"type" validate:"omitempty,oneof=technical behavioral situational general"`
	Context    string `json:"context"`
}

type QuestionResult struct {
	Question    string  `json:"question"`
	Type        string  `json:"type"`
	Difficulty  string  `json:"difficulty"`
	AIGenerated bool    `json:"aiGenerated"`
	Context     *string `json:"context"`
}

type SuggestionRequest struct {
	Transcript string `json:"transcript" validate:"required"`
	Context    string `json:"context"`
	Position   string `json:"position"`
}

type SuggestionResult struct {
	Suggestion  string  `json:"suggestion"`
	Confidence  float64 `json:"confidence"`
	Type        string  `json:"type"`
	AIGenerated bool    `json:"aiGenerated"`
}

type AnalysisRequest struct {
	Response string `json:"response" validate:"required"`
	Question string `json:"question" validate:"required"`
	Position string `json:"position"`
	Criteria string `json:"criteria"`
}

type Sentiment struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

type Analysis struct {
	Score        float64   `json:"score"`
	Strengths    []string  `json:"strengths"`
	Improvements []string  `json:"improvements"`
	Keywords     []string  `json:"keywords"`
	Sentiment    Sentiment `json:"sentiment"`
	AIGenerated  bool      `json:"aiGenerated"`
	Note         string    `json:"note,omitempty"`
}

type FeedbackRequest struct {
	Transcript   string             `json:"transcript" validate:"required"`
	Position     string             `json:"position"`
	Evaluations  []types.Evaluation `json:"evaluations"`
	OverallScore *float64           `json:"overallScore"`
}

type FeedbackResult struct {
	Summary        string   `json:"summary"`
	Strengths      []string `json:"strengths"`
	Improvements   []string `json:"improvements"`
	Recommendation string   `json:"recommendation"`
	Confidence     float64  `json:"confidence"`
	AIGenerated    bool     `json:"aiGenerated"`
	Note           string   `json:"note,omitempty"`
}

type Features struct {
	QuestionGeneration   bool `json:"questionGeneration"`
	SuggestionGeneration bool `json:"suggestionGeneration"`
	ResponseAnalysis     bool `json:"responseAnalysis"`
	FeedbackGeneration   bool `json:"feedbackGeneration"`
}

type Status struct {
	OpenAIConfigured bool     `json:"openaiConfigured"`
	Status           string   `json:"status"`
	Model            string   `json:"model,omitempty"`
	Features         Features `json:"features"`
}

// Assistant answers interview prompts. A nil client selects the mock.
type Assistant struct {
	client      ChatClient
	model       string
	temperature float32
	cache       storage.Cache
	pick        func(n int) int
	log         zerolog.Logger
}

// New builds an assistant from cfg; an empty API key yields the mock.
func New(cfg config.AIConfig, cache storage.Cache) *Assistant {
	var client ChatClient
	if cfg.APIKey != "" {
		oc := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		oc.HTTPClient = &http.Client{Timeout: timeout}
		client = NewRateLimitedClient(openai.NewClientWithConfig(oc), cfg.RequestsPerMinute,
			cfg.MaxRetries, time.Duration(cfg.RetryWaitMS)*time.Millisecond)
	}
	return NewWithClient(client, cfg.Model, cfg.Temperature, cache)
}

// NewWithClient wires an explicit chat client.
func NewWithClient(client ChatClient, model string, temperature float32, cache storage.Cache) *Assistant {
	return &Assistant{
		client:      client,
		model:       model,
		temperature: temperature,
		cache:       cache,
		pick:        rand.IntN,
		log:         logger.Component("ai"),
	}
}

// Configured reports whether a live model is wired.
func (a *Assistant) Configured() bool {
	return a.client != nil
}

func (a *Assistant) complete(ctx context.Context, op, prompt string, maxTokens int, temperature float32, jsonMode bool) (string, error) {
	ctx, span := tracer.Start(ctx, "ai."+op)
	defer span.End()
	span.SetAttributes(attribute.String("ai.model", a.model), attribute.Int("ai.prompt_len", len(prompt)))

	req := openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
		N:           1,
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}
	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if len(resp.Choices) == 0 {
		err := errors.New("no choices returned")
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// GenerateQuestion defaults difficulty to medium and type to technical.
func (a *Assistant) GenerateQuestion(ctx context.Context, req QuestionRequest) (*QuestionResult, error) {
	if req.Difficulty == "" {
		req.Difficulty = "medium"
	}
	if req.Type == "" {
		req.Type = "technical"
	}

	if !a.Configured() {
		pool, ok := mockQuestions[req.Type]
		if !ok {
			pool = mockQuestions["technical"]
		}
		ctxNote := mockQuestionContext
		return &QuestionResult{
			Question:   pool[a.pick(len(pool))],
			Type:       req.Type,
			Difficulty: req.Difficulty,
			Context:    &ctxNote,
		}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate a %s difficulty %s interview question for a %s position.", req.Difficulty, req.Type, req.Position)
	if req.Context != "" {
		fmt.Fprintf(&b, " Context: %s", req.Context)
	}
	fmt.Fprintf(&b, "\n\nRequirements:\n- The question should be appropriate for the skill level\n- It should be relevant to the %s role\n- It should encourage detailed responses\n- Avoid yes/no questions\n\nReturn only the question, no additional text.", req.Position)

	text, err := a.complete(ctx, "generate_question", b.String(), 150, a.temperature, false)
	if err != nil {
		return nil, err
	}
	res := &QuestionResult{Question: text, Type: req.Type, Difficulty: req.Difficulty, AIGenerated: true}
	if req.Context != "" {
		res.Context = &req.Context
	}
	return res, nil
}

func (a *Assistant) GenerateSuggestion(ctx context.Context, req SuggestionRequest) (*SuggestionResult, error) {
	if !a.Configured() {
		return &SuggestionResult{
			Suggestion: mockSuggestions[a.pick(len(mockSuggestions))],
			Confidence: 0.7,
			Type:       "follow-up-question",
		}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Based on this interview transcript for a %s position, suggest a relevant follow-up question or interviewing direction:\n\nTranscript: %q\n", req.Position, req.Transcript)
	if req.Context != "" {
		fmt.Fprintf(&b, "Additional context: %s\n", req.Context)
	}
	b.WriteString("\nProvide a concise, actionable suggestion for the interviewer. Focus on:\n- Areas that need clarification\n- Important topics not yet covered\n- Opportunities to dive deeper\n- Skills assessment opportunities\n\nReturn only the suggestion, no additional text.")

	text, err := a.complete(ctx, "generate_suggestion", b.String(), 100, 0.6, false)
	if err != nil {
		return nil, err
	}
	return &SuggestionResult{Suggestion: text, Confidence: 0.85, Type: "follow-up-question", AIGenerated: true}, nil
}

// AnalyzeResponse scores a candidate answer. Model output that does not
// decode as JSON yields a fixed fallback analysis rather than an error.
func (a *Assistant) AnalyzeResponse(ctx context.Context, req AnalysisRequest) (*Analysis, error) {
	if !a.Configured() {
		return mockAnalysis(float64(7 + a.pick(3))), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this interview response for a %s position:\n\nQuestion: %q\nResponse: %q\n", req.Position, req.Question, req.Response)
	if req.Criteria != "" {
		fmt.Fprintf(&b, "Evaluation criteria: %s\n", req.Criteria)
	}
	b.WriteString(`
Provide a structured analysis including:
1. A score from 1-10
2. Key strengths demonstrated
3. Areas for improvement
4. Important keywords mentioned
5. Overall sentiment (positive/neutral/negative percentages)

Format the response as JSON with the fields score, strengths, improvements, keywords and sentiment {positive, neutral, negative}.`)

	text, err := a.complete(ctx, "analyze_response", b.String(), 300, 0.3, true)
	if err != nil {
		return nil, err
	}
	var out Analysis
	if err := decodeJSON(text, &out); err != nil {
		a.log.Warn().Err(err).Msg("analysis is not valid JSON, using fallback")
		return fallbackAnalysis(), nil
	}
	out.AIGenerated = true
	return &out, nil
}

func (a *Assistant) GenerateFeedback(ctx context.Context, req FeedbackRequest) (*FeedbackResult, error) {
	if !a.Configured() {
		return mockFeedback(req.OverallScore), nil
	}

	score := "n/a"
	if req.OverallScore != nil {
		score = fmt.Sprintf("%.1f", *req.OverallScore)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Generate comprehensive interview feedback for a %s candidate:\n\nInterview transcript: %q\nOverall score: %s/10\n", req.Position, req.Transcript, score)
	if len(req.Evaluations) > 0 {
		if evals, err := json.Marshal(req.Evaluations); err == nil {
			fmt.Fprintf(&b, "Evaluation details: %s\n", evals)
		}
	}
	b.WriteString(`
Provide:
1. A brief summary of the candidate's performance
2. Key strengths demonstrated
3. Areas for improvement
4. Hiring recommendation (strong-hire/hire/no-hire/strong-no-hire)
5. Confidence level in the assessment

Format as JSON with summary, strengths, improvements, recommendation, and confidence fields.`)

	text, err := a.complete(ctx, "generate_feedback", b.String(), 400, 0.4, true)
	if err != nil {
		return nil, err
	}
	var out FeedbackResult
	if err := decodeJSON(text, &out); err != nil {
		a.log.Warn().Err(err).Msg("feedback is not valid JSON, using fallback")
		return fallbackFeedback(req.OverallScore), nil
	}
	out.AIGenerated = true
	return &out, nil
}

// Status reports provider configuration; the result is cached when a cache
// is wired.
func (a *Assistant) Status(ctx context.Context) Status {
	if a.cache != nil {
		var st Status
		if err := a.cache.GetJSON(ctx, constants.KeyAIStatus, &st); err == nil {
			return st
		}
	}

	st := Status{
		OpenAIConfigured: a.Configured(),
		Status:           "not-configured",
		Features:         Features{true, true, true, true},
	}
	if st.OpenAIConfigured {
		st.Status = "connected"
		st.Model = a.model
	}
	if a.cache != nil {
		if err := a.cache.SetJSON(ctx, constants.KeyAIStatus, st, constants.AIStatusCacheDuration); err != nil {
			a.log.Warn().Err(err).Msg("cache ai status")
		}
	}
	return st
}

// ErrNotConfigured is returned by Ping without an API key.
var ErrNotConfigured = errors.New("OpenAI API key not configured")

// Ping sends a minimal completion to verify the provider accepts the key.
func (a *Assistant) Ping(ctx context.Context) error {
	if !a.Configured() {
		return ErrNotConfigured
	}
	_, err := a.complete(ctx, "ping", "Test prompt for configuration validation", 10, 0.1, false)
	return err
}

// Model is the configured chat model name.
func (a *Assistant) Model() string {
	return a.model
}

// decodeJSON tolerates a surrounding markdown code fence.
func decodeJSON(text string, dest any) error {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return json.Unmarshal([]byte(text), dest)
}
