// Package auth manages service credentials stored in the config
// document. Tokens are kept verbatim; see DESIGN.md for the open
// question on at-rest encryption.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/nbdavies/ant/internal/config"
)

// ErrNotAuthenticated means no live token is stored for the service.
var ErrNotAuthenticated = errors.New("not authenticated")

// Manager reads and writes service tokens through the config document.
type Manager struct {
	cfg    *config.Config
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates a Manager over the loaded config.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{cfg: cfg, logger: logger, now: time.Now}
}

// StoreToken saves a credential for a service and persists the config.
func (m *Manager) StoreToken(service string, tok config.ServiceToken) error {
	if m.cfg.Auth.Tokens == nil {
		m.cfg.Auth.Tokens = make(map[string]config.ServiceToken)
	}
	tok.UpdatedAt = m.now()
	m.cfg.Auth.Tokens[service] = tok

	if err := m.cfg.Save(); err != nil {
		return fmt.Errorf("store %s token: %w", service, err)
	}
	m.logger.Info("stored service token", "service", service)
	return nil
}

// Token returns the stored credential for a service, expired or not.
func (m *Manager) Token(service string) (config.ServiceToken, bool) {
	tok, ok := m.cfg.Auth.Tokens[service]
	return tok, ok
}

// IsAuthenticated reports whether a live (present and unexpired)
// credential exists for the service.
func (m *Manager) IsAuthenticated(service string) bool {
	tok, ok := m.cfg.Auth.Tokens[service]
	if !ok || tok.AccessToken == "" {
		return false
	}
	if tok.ExpiresAt != nil && m.now().After(*tok.ExpiresAt) {
		return false
	}
	return true
}

// AccessToken returns the raw token string for a service, or
// ErrNotAuthenticated when absent or expired.
func (m *Manager) AccessToken(service string) (string, error) {
	if !m.IsAuthenticated(service) {
		return "", fmt.Errorf("%s: %w", service, ErrNotAuthenticated)
	}
	return m.cfg.Auth.Tokens[service].AccessToken, nil
}

// Revoke deletes the stored credential for a service and persists the
// config. Revoking an unknown service is a no-op.
func (m *Manager) Revoke(service string) error {
	if _, ok := m.cfg.Auth.Tokens[service]; !ok {
		return nil
	}
	delete(m.cfg.Auth.Tokens, service)

	if err := m.cfg.Save(); err != nil {
		return fmt.Errorf("revoke %s token: %w", service, err)
	}
	m.logger.Info("revoked service token", "service", service)
	return nil
}

// Services lists services with stored credentials, sorted by name.
func (m *Manager) Services() []string {
	names := make([]string, 0, len(m.cfg.Auth.Tokens))
	for name := range m.cfg.Auth.Tokens {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
