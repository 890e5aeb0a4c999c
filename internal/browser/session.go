// Package browser owns the headless Chrome instance used by the crawl
// strategy and tracks the pages opened against it.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"

	"prospect/internal/logging"
)

// Config holds browser configuration.
type Config struct {
	DebuggerURL         string
	Headless            bool
	ViewportWidth       int
	ViewportHeight      int
	NavigationTimeoutMs int
	ScreenshotDir       string
}

// DefaultConfig returns sensible defaults for unattended crawling.
func DefaultConfig() Config {
	return Config{
		Headless:            true,
		ViewportWidth:       1366,
		ViewportHeight:      900,
		NavigationTimeoutMs: 30000,
	}
}

// NavigationTimeout returns the per-page navigation timeout.
func (c Config) NavigationTimeout() time.Duration {
	if c.NavigationTimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.NavigationTimeoutMs) * time.Millisecond
}

// Session describes the public metadata for a tracked page.
type Session struct {
	ID         string    `json:"id"`
	URL        string    `json:"url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

type sessionRecord struct {
	meta Session
	page *rod.Page
}

// SessionManager owns the Chrome instance and tracks active sessions.
type SessionManager struct {
	cfg      Config
	mu       sync.RWMutex
	browser  *rod.Browser
	sessions map[string]*sessionRecord
}

// NewSessionManager creates a session manager; the browser is launched lazily
// on first use.
func NewSessionManager(cfg Config) *SessionManager {
	return &SessionManager{
		cfg:      cfg,
		sessions: make(map[string]*sessionRecord),
	}
}

// Start connects to an existing Chrome or launches a new one.
func (m *SessionManager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser != nil {
		if _, err := m.browser.Version(); err == nil {
			return nil
		}
		logging.BrowserWarn("stale browser connection detected, reconnecting")
		_ = m.browser.Close()
		m.browser = nil
		m.sessions = make(map[string]*sessionRecord)
	}

	controlURL := m.cfg.DebuggerURL
	if controlURL == "" {
		url, err := launcher.New().Headless(m.cfg.Headless).Launch()
		if err != nil {
			return fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = url
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}

	m.browser = browser
	logging.Browser("browser connected headless=%v", m.cfg.Headless)
	return nil
}

func (m *SessionManager) ensureStarted(ctx context.Context) error {
	m.mu.RLock()
	if m.browser != nil {
		m.mu.RUnlock()
		return nil
	}
	m.mu.RUnlock()
	return m.Start(ctx)
}

// IsConnected returns whether the browser is connected.
func (m *SessionManager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.browser != nil
}

// CreateSession opens a new incognito page, navigates it, and tracks it.
func (m *SessionManager) CreateSession(ctx context.Context, url string) (*Session, error) {
	if err := m.ensureStarted(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	browser := m.browser
	m.mu.RUnlock()
	if browser == nil {
		return nil, errors.New("browser not connected")
	}

	incognito, err := browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("incognito context: %w", err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             m.viewportWidth(),
		Height:            m.viewportHeight(),
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		logging.BrowserWarn("failed to set viewport: %v", err)
	}

	if err := page.Timeout(m.cfg.NavigationTimeout()).Navigate(url); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}

	meta := Session{
		ID:         uuid.NewString(),
		URL:        url,
		CreatedAt:  time.Now(),
		LastActive: time.Now(),
	}

	m.mu.Lock()
	m.sessions[meta.ID] = &sessionRecord{meta: meta, page: page}
	m.mu.Unlock()

	logging.BrowserDebug("session %s created for %s", meta.ID, url)
	return &meta, nil
}

// Page returns the underlying rod page for a session.
func (m *SessionManager) Page(sessionID string) (*rod.Page, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return rec.page, true
}

// CloseSession closes and forgets a session's page.
func (m *SessionManager) CloseSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.sessions[sessionID]; ok {
		if rec.page != nil {
			_ = rec.page.Close()
		}
		delete(m.sessions, sessionID)
	}
}

// Screenshot captures the session's page to dir, returning the file path.
// Used for crawl-failure diagnostics; errors here are never fatal.
func (m *SessionManager) Screenshot(sessionID, dir string) (string, error) {
	page, ok := m.Page(sessionID)
	if !ok {
		return "", fmt.Errorf("unknown session %s", sessionID)
	}
	if dir == "" {
		dir = filepath.Join(".prospect", "screenshots")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("screenshot dir: %w", err)
	}

	data, err := page.Screenshot(false, nil)
	if err != nil {
		return "", fmt.Errorf("capture screenshot: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", time.Now().Format("20060102T150405"), sessionID[:8]))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	return path, nil
}

// Shutdown closes tracked pages and the browser.
func (m *SessionManager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, rec := range m.sessions {
		if rec.page != nil {
			_ = rec.page.Close()
		}
		delete(m.sessions, id)
	}

	var err error
	if m.browser != nil {
		err = m.browser.Close()
		m.browser = nil
	}
	return err
}

func (m *SessionManager) viewportWidth() int {
	if m.cfg.ViewportWidth <= 0 {
		return 1366
	}
	return m.cfg.ViewportWidth
}

func (m *SessionManager) viewportHeight() int {
	if m.cfg.ViewportHeight <= 0 {
		return 900
	}
	return m.cfg.ViewportHeight
}
