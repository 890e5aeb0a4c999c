package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"prospect/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCampaignRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c := &types.Campaign{
		Name:     "TaskFlow",
		Product:  "task manager",
		Goals:    []string{"find early adopters"},
		Channels: []string{"twitter", "reddit"},
		Status:   types.CampaignActive,
	}
	require.NoError(t, s.SaveCampaign(ctx, c))
	require.NotEmpty(t, c.ID, "save should assign an ID")

	got, err := s.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, c.Name, got.Name)
	require.Equal(t, c.Channels, got.Channels)
	require.True(t, got.IsActive())
}

func TestGetCampaignNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetCampaign(context.Background(), "nope")
	require.ErrorIs(t, err, types.ErrCampaignNotFound)
}

func TestListCampaignsActiveOnly(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCampaign(ctx, &types.Campaign{Name: "a", Product: "p", Status: types.CampaignActive}))
	require.NoError(t, s.SaveCampaign(ctx, &types.Campaign{Name: "b", Product: "p", Status: types.CampaignPaused}))

	all, err := s.ListCampaigns(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)

	active, err := s.ListCampaigns(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "a", active[0].Name)
}

func TestInsertFindingsUniquePerCampaignURL(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	score := 0.82
	f := &types.Finding{
		CampaignID:          "c1",
		Title:               "need help",
		SourceURL:           "https://x.com/i/web/status/42",
		FindingType:         "twitter_opportunity",
		RelevanceScore:      8,
		IntentCategory:      types.IntentExplicitHelpRequest,
		IntentScore:         &score,
		Constraints:         []string{"budget"},
		RecommendedNextStep: types.StepHighPriority,
	}

	n, err := s.InsertFindings(ctx, []*types.Finding{f})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// Same URL again: silently ignored, not an error.
	dup := *f
	dup.ID = ""
	n, err = s.InsertFindings(ctx, []*types.Finding{&dup})
	require.NoError(t, err)
	require.Equal(t, 0, n)

	// Same URL under a different campaign is a distinct finding.
	other := *f
	other.ID = ""
	other.CampaignID = "c2"
	n, err = s.InsertFindings(ctx, []*types.Finding{&other})
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestInsertFindingsEmpty(t *testing.T) {
	s := openTestStore(t)
	n, err := s.InsertFindings(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestListFindingsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	score := 0.6
	_, err := s.InsertFindings(ctx, []*types.Finding{{
		CampaignID:           "c1",
		Title:                "struggling with invoices",
		Content:              "long post body",
		SourceURL:            "https://reddit.com/r/freelance/1",
		FindingType:          "reddit_opportunity",
		RelevanceScore:       6,
		IntentCategory:       types.IntentImplicitPain,
		IntentScore:          &score,
		CoreProblem:          "manual invoicing",
		UnderlyingMotivation: "save time",
		Constraints:          []string{"solo operator"},
		EmotionalSignals:     []string{"frustration"},
		RecommendedNextStep:  types.StepReview,
	}})
	require.NoError(t, err)

	findings, err := s.ListFindings(ctx, "c1", false)
	require.NoError(t, err)
	require.Len(t, findings, 1)

	f := findings[0]
	require.Equal(t, "struggling with invoices", f.Title)
	require.NotNil(t, f.IntentScore)
	require.Equal(t, 0.6, *f.IntentScore)
	require.Equal(t, []string{"solo operator"}, f.Constraints)
	require.Equal(t, []string{"frustration"}, f.EmotionalSignals)
	require.False(t, f.Processed)
}

func TestListURLs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.InsertFindings(ctx, []*types.Finding{
		{CampaignID: "c1", Title: "a", SourceURL: "https://a.example/1", FindingType: "general_opportunity", RelevanceScore: 5},
		{CampaignID: "c1", Title: "b", SourceURL: "https://a.example/2", FindingType: "general_opportunity", RelevanceScore: 5},
		{CampaignID: "c2", Title: "c", SourceURL: "https://a.example/3", FindingType: "general_opportunity", RelevanceScore: 5},
	})
	require.NoError(t, err)

	urls, err := s.ListURLs(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, urls, 2)
	require.True(t, urls["https://a.example/1"])
	require.False(t, urls["https://a.example/3"], "other campaign's URL must not leak")
}

func TestMarkProcessed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	f := &types.Finding{CampaignID: "c1", Title: "a", SourceURL: "https://a.example/1",
		FindingType: "general_opportunity", RelevanceScore: 5}
	_, err := s.InsertFindings(ctx, []*types.Finding{f})
	require.NoError(t, err)

	require.NoError(t, s.MarkProcessed(ctx, f.ID))

	unprocessed, err := s.ListFindings(ctx, "c1", true)
	require.NoError(t, err)
	require.Empty(t, unprocessed)

	all, err := s.ListFindings(ctx, "c1", false)
	require.NoError(t, err)
	require.True(t, all[0].Processed)

	require.Error(t, s.MarkProcessed(ctx, "missing-id"))
}

func TestAgentStateUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	none, err := s.GetAgentState(ctx, "c1")
	require.NoError(t, err)
	require.Nil(t, none)

	require.NoError(t, s.UpsertAgentState(ctx, &types.AgentState{
		CampaignID: "c1",
		Phase:      types.PhaseResearch,
	}))
	require.NoError(t, s.UpsertAgentState(ctx, &types.AgentState{
		CampaignID:          "c1",
		Phase:               types.PhasePlanning,
		OpportunitiesQueued: 4,
	}))

	state, err := s.GetAgentState(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, types.PhasePlanning, state.Phase, "last writer wins")
	require.Equal(t, 4, state.OpportunitiesQueued)
}

func TestMemoryCampaigns(t *testing.T) {
	m := NewMemoryCampaigns(
		&types.Campaign{ID: "c1", Name: "a", Status: types.CampaignActive},
		&types.Campaign{ID: "c2", Name: "b", Status: types.CampaignPaused},
	)
	ctx := context.Background()

	c, err := m.GetCampaign(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, "a", c.Name)

	_, err = m.GetCampaign(ctx, "missing")
	require.ErrorIs(t, err, types.ErrCampaignNotFound)

	active, err := m.ListCampaigns(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
}
