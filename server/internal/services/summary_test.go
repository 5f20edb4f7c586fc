package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"testons-go/server/internal/metrics"
	"testons-go/server/internal/sentiment"
)

type mockChat struct {
	mock.Mock
}

func (m *mockChat) New(ctx context.Context, body openai.ChatCompletionNewParams, _ ...option.RequestOption) (*openai.ChatCompletion, error) {
	args := m.Called(ctx, body)
	resp, _ := args.Get(0).(*openai.ChatCompletion)
	return resp, args.Error(1)
}

func completion(t *testing.T, content string) *openai.ChatCompletion {
	var c openai.ChatCompletion
	raw := `{"id":"c1","object":"chat.completion","model":"gpt-4o-mini","created":0,` +
		`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":` +
		mustJSON(t, content) + `}}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	return &c
}

func mustJSON(t *testing.T, v any) string {
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func sampleVerbatims() sentiment.Verbatims {
	return sentiment.Verbatims{
		Positive: []sentiment.Verbatim{
			{Participant: "Camille", TaskID: 2, TaskTitle: "Poser une question", Text: "Réponse rapide", Sentiment: sentiment.Positive},
		},
		Negative: []sentiment.Verbatim{
			{Participant: "Léo", TaskID: 1, TaskTitle: "Découverte", Text: "Page d'accueil confuse", Sentiment: sentiment.Negative},
		},
		Neutral: []sentiment.Verbatim{
			{Participant: "Léo", Field: "generalObservations", Text: "Utilise surtout le mobile", Sentiment: sentiment.Neutral},
		},
	}
}

func TestNewSummarizerRequiresKey(t *testing.T) {
	_, err := NewSummarizer("", "gpt-4o-mini", zap.NewNop())
	assert.ErrorIs(t, err, ErrSummaryDisabled)
}

func TestBuildTranscriptGroupsByTask(t *testing.T) {
	got := BuildTranscript(sampleVerbatims())

	discovery := strings.Index(got, "## Découverte")
	question := strings.Index(got, "## Poser une question")
	general := strings.Index(got, "## Observations générales")
	require.True(t, discovery >= 0 && question >= 0 && general >= 0, got)
	assert.Less(t, discovery, question)
	assert.Less(t, question, general)
	assert.Contains(t, got, "- [negative] Léo : Page d'accueil confuse")
}

func TestBuildTranscriptEmpty(t *testing.T) {
	assert.Empty(t, BuildTranscript(sentiment.Verbatims{}))
}

func TestSummarize(t *testing.T) {
	chat := new(mockChat)
	s := &Summarizer{chat: chat, model: "gpt-4o-mini", log: zap.NewNop()}
	rate := 75.0
	report := metrics.Report{SessionCount: 4, SuccessRate: 80, AutonomyRate: &rate}

	chat.On("New", mock.Anything, mock.MatchedBy(func(p openai.ChatCompletionNewParams) bool {
		return p.Model == "gpt-4o-mini" && len(p.Messages) == 2
	})).Return(completion(t, "  Synthèse : bonne adoption.  "), nil).Once()

	got, err := s.Summarize(context.Background(), report, sampleVerbatims())
	require.NoError(t, err)
	assert.Equal(t, "Synthèse : bonne adoption.", got)
	chat.AssertExpectations(t)
}

func TestSummarizeErrors(t *testing.T) {
	chat := new(mockChat)
	s := &Summarizer{chat: chat, model: "gpt-4o-mini", log: zap.NewNop()}

	_, err := s.Summarize(context.Background(), metrics.Report{}, sentiment.Verbatims{})
	assert.Error(t, err)
	chat.AssertNotCalled(t, "New", mock.Anything, mock.Anything)

	chat.On("New", mock.Anything, mock.Anything).Return(nil, errors.New("rate limited")).Once()
	_, err = s.Summarize(context.Background(), metrics.Report{}, sampleVerbatims())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestHeadlineOmitsUncomputedRates(t *testing.T) {
	h := headline(metrics.Report{SessionCount: 2, SuccessRate: 50})
	assert.Contains(t, h, "Sessions : 2")
	assert.NotContains(t, h, "autonomie")
	assert.NotContains(t, h, "adoption")
}
