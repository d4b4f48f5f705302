package personal

import (
	"fmt"
	"time"
)

// exportInsightLimit is the insight cap for exports, larger than the
// digest window since exports feed offline analysis.
const exportInsightLimit = 100

// Export is the full personal-memory dump. Unlike the digest, nothing
// is filtered by confidence.
type Export struct {
	Profile         *Profile         `json:"personality_profile"`
	Insights        []Insight        `json:"conversation_insights"`
	SessionHistory  []SessionSummary `json:"conversation_history"`
	ExportTimestamp time.Time        `json:"export_timestamp"`
}

// ExportAll dumps the profile, up to 100 recent insights, and the full
// session roll-up history.
func (s *Store) ExportAll() (*Export, error) {
	profile, err := s.GetProfile()
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	insights, err := s.RecentInsights(exportInsightLimit)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	history, err := s.SessionSummaries()
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	return &Export{
		Profile:         profile,
		Insights:        insights,
		SessionHistory:  history,
		ExportTimestamp: s.now().UTC(),
	}, nil
}
