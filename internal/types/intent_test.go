package types

import (
	"strings"
	"testing"
)

const validAnalysisJSON = `{
	"intent_category": "explicit_help_request",
	"intent_score": 0.82,
	"should_human_review": false,
	"confidence_reasoning": "direct ask for a tool",
	"core_problem": "needs a task manager",
	"underlying_motivation": "overwhelmed by freelance workload",
	"constraints": ["budget"],
	"emotional_signals": ["frustration"],
	"matched_campaign_themes": ["task management"],
	"recommended_next_step": "high_priority"
}`

func TestParseIntentAnalysis(t *testing.T) {
	a, err := ParseIntentAnalysis([]byte(validAnalysisJSON))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.IntentCategory != IntentExplicitHelpRequest {
		t.Errorf("category = %q", a.IntentCategory)
	}
	if a.IntentScore != 0.82 {
		t.Errorf("score = %v", a.IntentScore)
	}
	if a.RecommendedNextStep != StepHighPriority {
		t.Errorf("next step = %q", a.RecommendedNextStep)
	}
}

func TestParseIntentAnalysisCodeFence(t *testing.T) {
	fenced := "```json\n" + validAnalysisJSON + "\n```"
	a, err := ParseIntentAnalysis([]byte(fenced))
	if err != nil {
		t.Fatalf("fenced payload rejected: %v", err)
	}
	if a.IntentScore != 0.82 {
		t.Errorf("score = %v", a.IntentScore)
	}
}

func TestParseIntentAnalysisRejects(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not json", "the author wants help"},
		{"unknown category", strings.Replace(validAnalysisJSON, "explicit_help_request", "buying_soon", 1)},
		{"score too high", strings.Replace(validAnalysisJSON, "0.82", "1.7", 1)},
		{"score negative", strings.Replace(validAnalysisJSON, "0.82", "-0.1", 1)},
		{"unknown next step", strings.Replace(validAnalysisJSON, "high_priority", "reply_now", 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseIntentAnalysis([]byte(tc.raw)); err == nil {
				t.Errorf("expected rejection")
			}
		})
	}
}

func TestAdmitted(t *testing.T) {
	cases := []struct {
		score float64
		want  bool
	}{
		{0.82, true},
		{0.50, true}, // gate is inclusive
		{0.49, false},
		{0.0, false},
	}
	for _, tc := range cases {
		a := &IntentAnalysis{IntentScore: tc.score}
		if got := a.Admitted(); got != tc.want {
			t.Errorf("Admitted(%v) = %v, want %v", tc.score, got, tc.want)
		}
	}
	var nilAnalysis *IntentAnalysis
	if nilAnalysis.Admitted() {
		t.Error("nil analysis must not be admitted")
	}
}

func TestRelevance(t *testing.T) {
	cases := []struct {
		score float64
		want  int
	}{
		{0.82, 8},
		{0.50, 5},
		{0.85, 9}, // rounds half up
		{1.0, 10},
		{0.0, 0},
	}
	for _, tc := range cases {
		a := &IntentAnalysis{IntentScore: tc.score}
		if got := a.Relevance(); got != tc.want {
			t.Errorf("Relevance(%v) = %d, want %d", tc.score, got, tc.want)
		}
	}
}
