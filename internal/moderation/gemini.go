package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/myao0007/shetalks/internal/model"
)

const analysisPrompt = `You are a content safety reviewer for a women's support community.
Analyse the post below and answer ONLY with a JSON object of the form:
{"hateSpeech": bool, "selfHarm": bool, "inappropriate": bool, "spam": bool, "sentiment": "positive"|"negative"|"neutral"}

Post: %q`

// generator sends a prompt and returns the raw model text.
type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiAnalyzer asks a Gemini model for a ContentAnalysis. It is meant to be
// used as the primary Analyzer of a Moderator; every failure is returned so
// the Moderator can fall back to keyword analysis.
type GeminiAnalyzer struct {
	gen       generator
	modelName string
	timeout   time.Duration
	closeFn   func() error
}

// GeminiStatus reports whether the analyzer is usable.
type GeminiStatus struct {
	Initialized bool      `json:"initialized"`
	Model       string    `json:"model,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewGeminiAnalyzer connects to the Gemini API.
func NewGeminiAnalyzer(ctx context.Context, apiKey, modelName string, timeout time.Duration) (*GeminiAnalyzer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	gm := client.GenerativeModel(modelName)
	gm.SetTemperature(0)
	gm.ResponseMIMEType = "application/json"

	return &GeminiAnalyzer{
		gen:       &genaiGenerator{model: gm},
		modelName: modelName,
		timeout:   timeout,
		closeFn:   client.Close,
	}, nil
}

// Analyze implements Analyzer.
func (g *GeminiAnalyzer) Analyze(ctx context.Context, normalized string) (model.ContentAnalysis, error) {
	if g == nil || g.gen == nil {
		return model.ContentAnalysis{}, fmt.Errorf("gemini analyzer not initialized")
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	raw, err := g.gen.Generate(ctx, fmt.Sprintf(analysisPrompt, normalized))
	if err != nil {
		return model.ContentAnalysis{}, fmt.Errorf("gemini generate: %w", err)
	}
	return parseAnalysis(raw)
}

// Status reports the analyzer state.
func (g *GeminiAnalyzer) Status() GeminiStatus {
	st := GeminiStatus{Timestamp: time.Now().UTC()}
	if g != nil && g.gen != nil {
		st.Initialized = true
		st.Model = g.modelName
	}
	return st
}

// Close releases the underlying client.
func (g *GeminiAnalyzer) Close() error {
	if g == nil || g.closeFn == nil {
		return nil
	}
	return g.closeFn()
}

type analysisPayload struct {
	HateSpeech    *bool  `json:"hateSpeech"`
	SelfHarm      *bool  `json:"selfHarm"`
	Inappropriate *bool  `json:"inappropriate"`
	Spam          *bool  `json:"spam"`
	Sentiment     string `json:"sentiment"`
}

// parseAnalysis accepts the model's JSON, tolerating a fenced code block.
// Missing fields or an unknown sentiment are errors.
func parseAnalysis(raw string) (model.ContentAnalysis, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var p analysisPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return model.ContentAnalysis{}, fmt.Errorf("decode gemini analysis: %w", err)
	}
	if p.HateSpeech == nil || p.SelfHarm == nil || p.Inappropriate == nil || p.Spam == nil {
		return model.ContentAnalysis{}, fmt.Errorf("gemini analysis missing fields: %s", raw)
	}

	sentiment := model.Sentiment(strings.ToLower(strings.TrimSpace(p.Sentiment)))
	switch sentiment {
	case model.SentimentPositive, model.SentimentNegative, model.SentimentNeutral:
	default:
		return model.ContentAnalysis{}, fmt.Errorf("gemini analysis has unknown sentiment %q", p.Sentiment)
	}

	return model.ContentAnalysis{
		HateSpeech:    *p.HateSpeech,
		SelfHarm:      *p.SelfHarm,
		Inappropriate: *p.Inappropriate,
		Spam:          *p.Spam,
		Sentiment:     sentiment,
	}, nil
}

type genaiGenerator struct {
	model *genai.GenerativeModel
}

func (g *genaiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no analysis generated")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}
