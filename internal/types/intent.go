package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Intent categories the classifier backend must choose from.
const (
	IntentExplicitHelpRequest = "explicit_help_request"
	IntentImplicitPain        = "implicit_pain_struggle"
	IntentSolutionResearch    = "solution_research_comparison"
	IntentGeneralDiscussion   = "general_discussion_opinion"
	IntentPromotional         = "promotional_irrelevant"
)

// AdmissionThreshold is the intent score below which a classified candidate
// is discarded rather than persisted.
const AdmissionThreshold = 0.50

// IntentAnalysis is the validated output of the intent classifier backend.
// Field names mirror the strict-JSON contract the backend is instructed to
// emit; anything that fails validation is rejected wholesale.
type IntentAnalysis struct {
	IntentCategory        string   `json:"intent_category"`
	IntentScore           float64  `json:"intent_score"`
	ShouldHumanReview     bool     `json:"should_human_review"`
	ConfidenceReasoning   string   `json:"confidence_reasoning"`
	CoreProblem           string   `json:"core_problem"`
	UnderlyingMotivation  string   `json:"underlying_motivation"`
	Constraints           []string `json:"constraints"`
	EmotionalSignals      []string `json:"emotional_signals"`
	MatchedCampaignThemes []string `json:"matched_campaign_themes"`
	RecommendedNextStep   string   `json:"recommended_next_step"`
}

var validCategories = map[string]bool{
	IntentExplicitHelpRequest: true,
	IntentImplicitPain:        true,
	IntentSolutionResearch:    true,
	IntentGeneralDiscussion:   true,
	IntentPromotional:         true,
}

var validSteps = map[string]bool{
	StepIgnore:       true,
	StepReview:       true,
	StepHighPriority: true,
}

// ParseIntentAnalysis is the parse-or-reject boundary for classifier output.
// It tolerates markdown code fences around the payload but nothing else:
// unknown categories, out-of-range scores, and malformed JSON all reject.
func ParseIntentAnalysis(raw []byte) (*IntentAnalysis, error) {
	text := stripCodeFence(string(raw))
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty classifier response")
	}

	var a IntentAnalysis
	if err := json.Unmarshal([]byte(text), &a); err != nil {
		return nil, fmt.Errorf("parse intent analysis: %w", err)
	}

	if !validCategories[a.IntentCategory] {
		return nil, fmt.Errorf("invalid intent_category %q", a.IntentCategory)
	}
	if a.IntentScore < 0 || a.IntentScore > 1 {
		return nil, fmt.Errorf("intent_score %.2f out of range [0,1]", a.IntentScore)
	}
	if !validSteps[a.RecommendedNextStep] {
		return nil, fmt.Errorf("invalid recommended_next_step %q", a.RecommendedNextStep)
	}

	return &a, nil
}

// Admitted reports whether this analysis clears the admission gate.
func (a *IntentAnalysis) Admitted() bool {
	return a != nil && a.IntentScore >= AdmissionThreshold
}

// Relevance derives the persisted 0-10 relevance score from the intent score.
func (a *IntentAnalysis) Relevance() int {
	return int(math.Round(a.IntentScore * 10))
}

// stripCodeFence removes a surrounding ```json ... ``` fence if present.
// Some backends wrap strict-JSON output despite being told not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
