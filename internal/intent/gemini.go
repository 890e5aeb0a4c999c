package intent

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"prospect/internal/logging"
	"prospect/internal/types"
)

const defaultModel = "gemini-2.0-flash"

// GeminiClassifier implements Classifier against the Gemini API with a
// response schema enforcing the strict-JSON contract.
type GeminiClassifier struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiClassifier creates a Gemini-backed classifier.
func NewGeminiClassifier(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiClassifier{client: client, model: model, timeout: timeout}, nil
}

// Classify sends one post for analysis under a bounded per-call timeout.
func (g *GeminiClassifier) Classify(ctx context.Context, campaign *types.Campaign, post types.RawPost) (*types.IntentAnalysis, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	timer := logging.StartTimer(logging.CategoryIntent, "classify "+post.URL)
	defer timer.Stop()

	contents := []*genai.Content{
		genai.NewContentFromText(BuildUserPrompt(campaign, post), genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(callCtx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.2),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    analysisSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini classify: %w", err)
	}

	text := result.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini classify: empty response")
	}

	analysis, err := types.ParseIntentAnalysis([]byte(text))
	if err != nil {
		logging.IntentWarn("rejected analysis for %s: %v", post.URL, err)
		return nil, err
	}
	return analysis, nil
}

// analysisSchema is the response schema mirroring types.IntentAnalysis.
func analysisSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"intent_category": {
				Type: genai.TypeString,
				Enum: []string{
					types.IntentExplicitHelpRequest,
					types.IntentImplicitPain,
					types.IntentSolutionResearch,
					types.IntentGeneralDiscussion,
					types.IntentPromotional,
				},
			},
			"intent_score":          {Type: genai.TypeNumber},
			"should_human_review":   {Type: genai.TypeBoolean},
			"confidence_reasoning":  {Type: genai.TypeString},
			"core_problem":          {Type: genai.TypeString},
			"underlying_motivation": {Type: genai.TypeString},
			"constraints": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"emotional_signals": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"matched_campaign_themes": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"recommended_next_step": {
				Type: genai.TypeString,
				Enum: []string{types.StepIgnore, types.StepReview, types.StepHighPriority},
			},
		},
		Required: []string{
			"intent_category",
			"intent_score",
			"should_human_review",
			"confidence_reasoning",
			"core_problem",
			"underlying_motivation",
			"recommended_next_step",
		},
	}
}
