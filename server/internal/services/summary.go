package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"testons-go/server/internal/metrics"
	"testons-go/server/internal/sentiment"
)

// ErrSummaryDisabled is returned when no API key is configured.
var ErrSummaryDisabled = errors.New("summary disabled: no LLM API key configured")

const summarySystemPrompt = `Tu es un chercheur UX. À partir des verbatims de tests utilisateurs ` +
	`et des indicateurs fournis, rédige une synthèse en français : points forts, ` +
	`irritants principaux, recommandations priorisées. Reste factuel et cite les participants.`

// chatCompleter is the slice of the chat completions API the summarizer needs.
type chatCompleter interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Summarizer asks a chat model for a written synthesis of the sessions.
type Summarizer struct {
	chat  chatCompleter
	model string
	log   *zap.Logger
}

// NewSummarizer returns ErrSummaryDisabled when apiKey is empty.
func NewSummarizer(apiKey, model string, log *zap.Logger) (*Summarizer, error) {
	if apiKey == "" {
		return nil, ErrSummaryDisabled
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Summarizer{chat: &client.Chat.Completions, model: model, log: log}, nil
}

// Summarize sends the transcript and headline figures and returns the model's text.
func (s *Summarizer) Summarize(ctx context.Context, report metrics.Report, verbatims sentiment.Verbatims) (string, error) {
	transcript := BuildTranscript(verbatims)
	if transcript == "" {
		return "", errors.New("no verbatims to summarize")
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(summarySystemPrompt),
			openai.UserMessage(headline(report) + "\n\n" + transcript),
		},
	}
	resp, err := s.chat.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	s.log.Info("Generated session summary",
		zap.String("model", s.model),
		zap.Int64("promptTokens", resp.Usage.PromptTokens),
		zap.Int64("completionTokens", resp.Usage.CompletionTokens))
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func headline(r metrics.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sessions : %d\nTaux de réussite : %.1f %%\n", r.SessionCount, r.SuccessRate)
	if r.AutonomyRate != nil {
		fmt.Fprintf(&b, "Taux d'autonomie : %.1f %%\n", *r.AutonomyRate)
	}
	if r.AdoptionScore != nil {
		fmt.Fprintf(&b, "Score d'adoption : %.1f/10\n", *r.AdoptionScore)
	}
	return b.String()
}

// BuildTranscript groups the verbatims by task, general observations last.
func BuildTranscript(v sentiment.Verbatims) string {
	all := v.All()
	if len(all) == 0 {
		return ""
	}

	type group struct {
		id    int
		title string
		lines []string
	}
	groups := map[int]*group{}
	for _, q := range all {
		g, ok := groups[q.TaskID]
		if !ok {
			title := q.TaskTitle
			if q.TaskID == 0 {
				title = "Observations générales"
			}
			g = &group{id: q.TaskID, title: title}
			groups[q.TaskID] = g
		}
		g.lines = append(g.lines, fmt.Sprintf("- [%s] %s : %s", q.Sentiment, q.Participant, q.Text))
	}

	ordered := make([]*group, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i].id, ordered[j].id
		if a == 0 || b == 0 {
			return b == 0 && a != 0
		}
		return a < b
	})

	var b strings.Builder
	for i, g := range ordered {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %s\n%s\n", g.title, strings.Join(g.lines, "\n"))
	}
	return b.String()
}
