// Package store persists campaigns, findings, and per-campaign agent state in
// a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"prospect/internal/logging"
	"prospect/internal/types"
)

// Store wraps the SQLite database. *sql.DB is already safe for concurrent
// use; WAL mode keeps readers unblocked during the insert transaction.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and applies schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("failed to enable WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("failed to set synchronous mode: %v", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Store("database opened at %s", path)
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS campaigns (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		product TEXT NOT NULL,
		goals TEXT,
		channels TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS findings (
		id TEXT PRIMARY KEY,
		campaign_id TEXT NOT NULL,
		title TEXT NOT NULL,
		content TEXT,
		source_url TEXT NOT NULL,
		finding_type TEXT NOT NULL,
		relevance_score INTEGER NOT NULL,
		processed INTEGER NOT NULL DEFAULT 0,
		intent_category TEXT,
		intent_score REAL,
		core_problem TEXT,
		underlying_motivation TEXT,
		constraints TEXT,
		emotional_signals TEXT,
		confidence_reasoning TEXT,
		recommended_next_step TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(campaign_id, source_url)
	);
	CREATE INDEX IF NOT EXISTS idx_findings_campaign ON findings(campaign_id);
	CREATE INDEX IF NOT EXISTS idx_findings_processed ON findings(campaign_id, processed);

	CREATE TABLE IF NOT EXISTS agent_state (
		campaign_id TEXT PRIMARY KEY,
		phase TEXT NOT NULL,
		last_run_at TIMESTAMP,
		next_run_at TIMESTAMP,
		opportunities_queued INTEGER NOT NULL DEFAULT 0,
		error_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveCampaign inserts or replaces a campaign.
func (s *Store) SaveCampaign(ctx context.Context, c *types.Campaign) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	goals, _ := json.Marshal(c.Goals)
	channels, _ := json.Marshal(c.Channels)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO campaigns (id, name, product, goals, channels, status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			product = excluded.product,
			goals = excluded.goals,
			channels = excluded.channels,
			status = excluded.status`,
		c.ID, c.Name, c.Product, string(goals), string(channels), string(c.Status))
	if err != nil {
		return fmt.Errorf("save campaign %s: %w", c.ID, err)
	}
	return nil
}

// GetCampaign loads one campaign, or types.ErrCampaignNotFound.
func (s *Store) GetCampaign(ctx context.Context, id string) (*types.Campaign, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, product, goals, channels, status
		FROM campaigns WHERE id = ?`, id)

	var c types.Campaign
	var goals, channels sql.NullString
	err := row.Scan(&c.ID, &c.Name, &c.Product, &goals, &channels, &c.Status)
	if err == sql.ErrNoRows {
		return nil, types.ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign %s: %w", id, err)
	}

	if goals.Valid && goals.String != "" {
		_ = json.Unmarshal([]byte(goals.String), &c.Goals)
	}
	if channels.Valid && channels.String != "" {
		_ = json.Unmarshal([]byte(channels.String), &c.Channels)
	}
	return &c, nil
}

// ListCampaigns returns all campaigns, optionally only active ones.
func (s *Store) ListCampaigns(ctx context.Context, activeOnly bool) ([]*types.Campaign, error) {
	query := `SELECT id, name, product, goals, channels, status FROM campaigns ORDER BY created_at`
	if activeOnly {
		query = `SELECT id, name, product, goals, channels, status FROM campaigns
			WHERE status = 'active' ORDER BY created_at`
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []*types.Campaign
	for rows.Next() {
		var c types.Campaign
		var goals, channels sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.Product, &goals, &channels, &c.Status); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		if goals.Valid && goals.String != "" {
			_ = json.Unmarshal([]byte(goals.String), &c.Goals)
		}
		if channels.Valid && channels.String != "" {
			_ = json.Unmarshal([]byte(channels.String), &c.Channels)
		}
		campaigns = append(campaigns, &c)
	}
	return campaigns, rows.Err()
}

// ListURLs returns the set of source URLs already persisted for a campaign.
func (s *Store) ListURLs(ctx context.Context, campaignID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_url FROM findings WHERE campaign_id = ?`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list urls for %s: %w", campaignID, err)
	}
	defer rows.Close()

	urls := make(map[string]bool)
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan url: %w", err)
		}
		urls[u] = true
	}
	return urls, rows.Err()
}

// InsertFindings persists a batch in one transaction with INSERT OR IGNORE,
// so a concurrent run inserting the same (campaign, URL) loses quietly
// instead of failing the batch. Returns the number actually inserted.
func (s *Store) InsertFindings(ctx context.Context, findings []*types.Finding) (int, error) {
	if len(findings) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO findings (
			id, campaign_id, title, content, source_url, finding_type,
			relevance_score, processed, intent_category, intent_score,
			core_problem, underlying_motivation, constraints, emotional_signals,
			confidence_reasoning, recommended_next_step, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, f := range findings {
		if f.ID == "" {
			f.ID = uuid.NewString()
		}
		if f.CreatedAt.IsZero() {
			f.CreatedAt = time.Now().UTC()
		}
		constraints, _ := json.Marshal(f.Constraints)
		signals, _ := json.Marshal(f.EmotionalSignals)

		res, err := stmt.ExecContext(ctx,
			f.ID, f.CampaignID, f.Title, f.Content, f.SourceURL, f.FindingType,
			f.RelevanceScore, f.Processed, nullStr(f.IntentCategory), f.IntentScore,
			nullStr(f.CoreProblem), nullStr(f.UnderlyingMotivation),
			string(constraints), string(signals),
			nullStr(f.ConfidenceReasoning), nullStr(f.RecommendedNextStep),
			f.CreatedAt)
		if err != nil {
			return 0, fmt.Errorf("insert finding %s: %w", f.SourceURL, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit findings: %w", err)
	}

	logging.Store("inserted %d/%d findings", inserted, len(findings))
	return inserted, nil
}

// ListFindings returns a campaign's findings, newest first.
func (s *Store) ListFindings(ctx context.Context, campaignID string, unprocessedOnly bool) ([]*types.Finding, error) {
	query := `
		SELECT id, campaign_id, title, content, source_url, finding_type,
			relevance_score, processed, intent_category, intent_score,
			core_problem, underlying_motivation, constraints, emotional_signals,
			confidence_reasoning, recommended_next_step, created_at
		FROM findings WHERE campaign_id = ?`
	if unprocessedOnly {
		query += ` AND processed = 0`
	}
	query += ` ORDER BY created_at DESC, relevance_score DESC`

	rows, err := s.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list findings for %s: %w", campaignID, err)
	}
	defer rows.Close()

	var findings []*types.Finding
	for rows.Next() {
		f, err := scanFinding(rows)
		if err != nil {
			return nil, err
		}
		findings = append(findings, f)
	}
	return findings, rows.Err()
}

func scanFinding(rows *sql.Rows) (*types.Finding, error) {
	var f types.Finding
	var content, category, coreProblem, motivation sql.NullString
	var constraints, signals, reasoning, nextStep sql.NullString
	var score sql.NullFloat64

	err := rows.Scan(&f.ID, &f.CampaignID, &f.Title, &content, &f.SourceURL,
		&f.FindingType, &f.RelevanceScore, &f.Processed, &category, &score,
		&coreProblem, &motivation, &constraints, &signals, &reasoning,
		&nextStep, &f.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan finding: %w", err)
	}

	f.Content = content.String
	f.IntentCategory = category.String
	f.CoreProblem = coreProblem.String
	f.UnderlyingMotivation = motivation.String
	f.ConfidenceReasoning = reasoning.String
	f.RecommendedNextStep = nextStep.String
	if score.Valid {
		v := score.Float64
		f.IntentScore = &v
	}
	if constraints.Valid && constraints.String != "" {
		_ = json.Unmarshal([]byte(constraints.String), &f.Constraints)
	}
	if signals.Valid && signals.String != "" {
		_ = json.Unmarshal([]byte(signals.String), &f.EmotionalSignals)
	}
	return &f, nil
}

// MarkProcessed sets processed=true for a finding. The flag is monotonic;
// there is deliberately no way to unset it.
func (s *Store) MarkProcessed(ctx context.Context, findingID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE findings SET processed = 1 WHERE id = ?`, findingID)
	if err != nil {
		return fmt.Errorf("mark processed %s: %w", findingID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finding %s not found", findingID)
	}
	return nil
}

// UpsertAgentState writes the campaign's run-state snapshot, last writer wins.
func (s *Store) UpsertAgentState(ctx context.Context, state *types.AgentState) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agent_state (
			campaign_id, phase, last_run_at, next_run_at,
			opportunities_queued, error_count, last_error, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(campaign_id) DO UPDATE SET
			phase = excluded.phase,
			last_run_at = excluded.last_run_at,
			next_run_at = excluded.next_run_at,
			opportunities_queued = excluded.opportunities_queued,
			error_count = excluded.error_count,
			last_error = excluded.last_error,
			updated_at = CURRENT_TIMESTAMP`,
		state.CampaignID, string(state.Phase), state.LastRunAt, state.NextRunAt,
		state.OpportunitiesQueued, state.ErrorCount, nullStr(state.LastError))
	if err != nil {
		return fmt.Errorf("upsert agent state %s: %w", state.CampaignID, err)
	}
	return nil
}

// GetAgentState loads a campaign's run-state snapshot, nil if none exists.
func (s *Store) GetAgentState(ctx context.Context, campaignID string) (*types.AgentState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT campaign_id, phase, last_run_at, next_run_at,
			opportunities_queued, error_count, last_error
		FROM agent_state WHERE campaign_id = ?`, campaignID)

	var state types.AgentState
	var phase string
	var lastErr sql.NullString
	err := row.Scan(&state.CampaignID, &phase, &state.LastRunAt, &state.NextRunAt,
		&state.OpportunitiesQueued, &state.ErrorCount, &lastErr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get agent state %s: %w", campaignID, err)
	}
	state.Phase = types.AgentPhase(phase)
	state.LastError = lastErr.String
	return &state, nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
