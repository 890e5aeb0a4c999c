package store

import (
	"context"
	"sync"

	"prospect/internal/types"
)

// MemoryCampaigns is an in-memory campaign provider. Used in tests and by
// callers that manage campaigns outside the database.
type MemoryCampaigns struct {
	mu        sync.RWMutex
	campaigns map[string]*types.Campaign
}

// NewMemoryCampaigns creates a provider seeded with the given campaigns.
func NewMemoryCampaigns(campaigns ...*types.Campaign) *MemoryCampaigns {
	m := &MemoryCampaigns{campaigns: make(map[string]*types.Campaign)}
	for _, c := range campaigns {
		m.campaigns[c.ID] = c
	}
	return m
}

// GetCampaign returns one campaign, or types.ErrCampaignNotFound.
func (m *MemoryCampaigns) GetCampaign(_ context.Context, id string) (*types.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, types.ErrCampaignNotFound
	}
	copied := *c
	return &copied, nil
}

// ListCampaigns returns all campaigns, optionally only active ones.
func (m *MemoryCampaigns) ListCampaigns(_ context.Context, activeOnly bool) ([]*types.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*types.Campaign
	for _, c := range m.campaigns {
		if activeOnly && !c.IsActive() {
			continue
		}
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

// Put adds or replaces a campaign.
func (m *MemoryCampaigns) Put(c *types.Campaign) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns[c.ID] = c
}
