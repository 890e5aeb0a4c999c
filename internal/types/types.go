// Package types defines the data model shared across the discovery pipeline:
// campaigns, raw scraped posts, persisted findings, and per-campaign agent state.
//
// RawPost and IntentAnalysis are the two parse-or-reject boundaries between
// loosely-structured external data (scraped DOM, search snippets, model output)
// and the persisted model. Nothing crosses into a Finding without passing
// through them.
package types

import (
	"errors"
	"time"
)

// CampaignStatus is the lifecycle status of a campaign.
type CampaignStatus string

const (
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
)

// Campaign is the product context a discovery run works against.
// Owned by the surrounding application; the pipeline only reads it.
type Campaign struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Product  string         `json:"product"`
	Goals    []string       `json:"goals,omitempty"`
	Channels []string       `json:"channels,omitempty"`
	Status   CampaignStatus `json:"status"`
}

// IsActive reports whether the campaign may be discovered against.
func (c *Campaign) IsActive() bool {
	return c != nil && c.Status == CampaignActive
}

// Engagement carries whatever interaction counts a source exposes.
type Engagement struct {
	Likes   int `json:"likes,omitempty"`
	Replies int `json:"replies,omitempty"`
	Shares  int `json:"shares,omitempty"`
}

// RawPost is an ephemeral candidate item produced by a source adapter.
// It is never persisted directly; it either becomes a Finding or is dropped.
type RawPost struct {
	URL        string      `json:"url"`
	Title      string      `json:"title"`
	Content    string      `json:"content,omitempty"`
	Platform   string      `json:"platform,omitempty"` // adapter hint, may be empty
	Author     string      `json:"author,omitempty"`
	Timestamp  *time.Time  `json:"timestamp,omitempty"`
	Engagement *Engagement `json:"engagement,omitempty"`
}

// RecommendedNextStep values for a classified finding.
const (
	StepIgnore       = "ignore"
	StepReview       = "review"
	StepHighPriority = "high_priority"
)

// DefaultRelevance is assigned when a post is admitted without a successful
// intent analysis (classifier backend degraded).
const DefaultRelevance = 5

// Finding is the persisted unit of discovered opportunity, unique per
// (campaign, source URL).
type Finding struct {
	ID             string `json:"id"`
	CampaignID     string `json:"campaign_id"`
	Title          string `json:"title"`
	Content        string `json:"content,omitempty"`
	SourceURL      string `json:"source_url"`
	FindingType    string `json:"finding_type"`
	RelevanceScore int    `json:"relevance_score"` // 0-10, derived from IntentScore when present
	Processed      bool   `json:"processed"`

	// Intent analysis fields, populated only when classification succeeded.
	IntentCategory       string   `json:"intent_category,omitempty"`
	IntentScore          *float64 `json:"intent_score,omitempty"`
	CoreProblem          string   `json:"core_problem,omitempty"`
	UnderlyingMotivation string   `json:"underlying_motivation,omitempty"`
	Constraints          []string `json:"constraints,omitempty"`
	EmotionalSignals     []string `json:"emotional_signals,omitempty"`
	ConfidenceReasoning  string   `json:"confidence_reasoning,omitempty"`
	RecommendedNextStep  string   `json:"recommended_next_step,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// AgentPhase is the per-campaign run-state phase.
type AgentPhase string

const (
	PhaseIdle       AgentPhase = "idle"
	PhaseResearch   AgentPhase = "research"
	PhasePlanning   AgentPhase = "planning"
	PhaseExecution  AgentPhase = "execution"
	PhaseEvaluation AgentPhase = "evaluation"
	PhaseError      AgentPhase = "error"
)

// AgentState is a point-in-time status snapshot, one row per campaign.
// Last writer wins; it is not an append log.
type AgentState struct {
	CampaignID          string     `json:"campaign_id"`
	Phase               AgentPhase `json:"phase"`
	LastRunAt           *time.Time `json:"last_run_at,omitempty"`
	NextRunAt           *time.Time `json:"next_run_at,omitempty"`
	OpportunitiesQueued int        `json:"opportunities_queued"`
	ErrorCount          int        `json:"error_count"`
	LastError           string     `json:"last_error,omitempty"`
}

// Discovery methods reported in a run result.
const (
	MethodAPI            = "api"
	MethodCrawl          = "crawl"
	MethodFallbackSample = "fallback-sample"
)

// FindingSummary is the per-finding slice of a run result.
type FindingSummary struct {
	Title               string   `json:"title"`
	URL                 string   `json:"url"`
	IntentScore         *float64 `json:"intent_score,omitempty"`
	IntentCategory      string   `json:"intent_category,omitempty"`
	RecommendedNextStep string   `json:"recommended_next_step,omitempty"`
}

// DiscoveryResult is what one campaign run returns to the caller.
// A run always produces a result; partial success is represented in the
// counts and Errors, never hidden.
type DiscoveryResult struct {
	Success           bool             `json:"success"`
	CampaignID        string           `json:"campaign_id"`
	FindingsCount     int              `json:"findings_count"`
	HighPriorityCount int              `json:"high_priority_count"`
	ReviewCount       int              `json:"review_count"`
	Method            string           `json:"method"`
	Findings          []FindingSummary `json:"findings"`
	Errors            []string         `json:"errors,omitempty"`
}

// CampaignOutcome pairs one campaign of a batch run with its result or error.
type CampaignOutcome struct {
	CampaignID string           `json:"campaign_id"`
	Result     *DiscoveryResult `json:"result,omitempty"`
	Err        error            `json:"-"`
}

// Sentinel errors surfaced as structured failures (no side effects).
var (
	ErrCampaignIDRequired = errors.New("campaign id required")
	ErrCampaignNotFound   = errors.New("campaign not found")
	ErrCampaignInactive   = errors.New("campaign not active")

	// ErrNoTweetID marks a Twitter/X URL with no parseable status ID.
	ErrNoTweetID = errors.New("no parseable tweet id")
)
