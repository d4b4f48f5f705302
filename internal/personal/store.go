package personal

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite-backed personal memory store.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open opens (creating if needed) the personal memory database.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, logger: logger, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS personality_traits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		trait_name TEXT NOT NULL,
		trait_value TEXT NOT NULL,
		confidence REAL DEFAULT 0.5,
		first_observed TIMESTAMP NOT NULL,
		last_updated TIMESTAMP NOT NULL,
		notes TEXT,
		UNIQUE(category, trait_name)
	);

	CREATE TABLE IF NOT EXISTS personal_preferences (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		preference_name TEXT NOT NULL,
		preference_value TEXT NOT NULL,
		reasoning TEXT,
		confidence REAL DEFAULT 0.5,
		first_noted TIMESTAMP NOT NULL,
		last_confirmed TIMESTAMP NOT NULL,
		UNIQUE(category, preference_name)
	);

	CREATE TABLE IF NOT EXISTS relationship_context (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		context_type TEXT NOT NULL,
		context_key TEXT NOT NULL,
		context_value TEXT NOT NULL,
		importance REAL DEFAULT 0.5,
		last_updated TIMESTAMP NOT NULL,
		UNIQUE(context_type, context_key)
	);

	CREATE TABLE IF NOT EXISTS conversation_insights (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_date TEXT NOT NULL,
		insight_type TEXT NOT NULL,
		insight TEXT NOT NULL,
		context TEXT,
		confidence REAL DEFAULT 0.5,
		timestamp TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS conversation_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		conversation_topic TEXT,
		key_insights TEXT,
		mood TEXT,
		conversation_quality TEXT,
		learned_something_new BOOLEAN DEFAULT FALSE
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordTrait upserts a personality trait. Repeat calls on the same
// (category, name) update value, confidence, notes, and last_updated
// while keeping the original first_observed.
func (s *Store) RecordTrait(category, name, value string, confidence float64, notes string) error {
	now := s.now().UTC()

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO personality_traits
		(category, trait_name, trait_value, confidence, first_observed, last_updated, notes)
		VALUES (?, ?, ?, ?,
			COALESCE((SELECT first_observed FROM personality_traits
			          WHERE category = ? AND trait_name = ?), ?),
			?, ?)
	`, category, name, value, confidence, category, name, now, now, nullable(notes))
	if err != nil {
		return fmt.Errorf("record trait: %w", err)
	}

	s.logger.Debug("recorded trait",
		"category", category, "name", name, "confidence", confidence)
	return nil
}

// RecordPreference upserts a personal preference with the same
// first-timestamp-preserving contract as RecordTrait.
func (s *Store) RecordPreference(category, name, value, reasoning string, confidence float64) error {
	now := s.now().UTC()

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO personal_preferences
		(category, preference_name, preference_value, reasoning, confidence, first_noted, last_confirmed)
		VALUES (?, ?, ?, ?, ?,
			COALESCE((SELECT first_noted FROM personal_preferences
			          WHERE category = ? AND preference_name = ?), ?),
			?)
	`, category, name, value, nullable(reasoning), confidence, category, name, now, now)
	if err != nil {
		return fmt.Errorf("record preference: %w", err)
	}

	s.logger.Debug("recorded preference",
		"category", category, "name", name, "confidence", confidence)
	return nil
}

// UpdateContext overwrite-upserts a relationship context entry.
func (s *Store) UpdateContext(contextType, key, value string, importance float64) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO relationship_context
		(context_type, context_key, context_value, importance, last_updated)
		VALUES (?, ?, ?, ?, ?)
	`, contextType, key, value, importance, s.now().UTC())
	if err != nil {
		return fmt.Errorf("update context: %w", err)
	}
	return nil
}

// RecordInsight appends a conversation insight. Never merges.
func (s *Store) RecordInsight(insightType, text, context string, confidence float64) error {
	now := s.now().UTC()

	_, err := s.db.Exec(`
		INSERT INTO conversation_insights
		(session_date, insight_type, insight, context, confidence, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`, now.Format("2006-01-02"), insightType, text, nullable(context), confidence, now)
	if err != nil {
		return fmt.Errorf("record insight: %w", err)
	}
	return nil
}

// LogSessionSummary appends a per-session roll-up row.
func (s *Store) LogSessionSummary(sum SessionSummary) error {
	ts := sum.Timestamp
	if ts.IsZero() {
		ts = s.now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO conversation_history
		(session_id, timestamp, conversation_topic, key_insights, mood, conversation_quality, learned_something_new)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, sum.SessionID, ts, nullable(sum.Topic), nullable(sum.KeyInsights),
		nullable(sum.Mood), nullable(sum.Quality), sum.LearnedSomethingNew)
	if err != nil {
		return fmt.Errorf("log session summary: %w", err)
	}
	return nil
}

// GetProfile returns all traits, preferences, and relationship context,
// grouped by category/type. Within each group entries are ordered by
// confidence (or importance) descending so callers can threshold.
func (s *Store) GetProfile() (*Profile, error) {
	p := &Profile{
		Traits:      make(map[string][]Trait),
		Preferences: make(map[string][]Preference),
		Context:     make(map[string][]ContextEntry),
	}

	rows, err := s.db.Query(`
		SELECT category, trait_name, trait_value, confidence,
		       first_observed, last_updated, COALESCE(notes, '')
		FROM personality_traits
		ORDER BY confidence DESC, last_updated DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query traits: %w", err)
	}
	for rows.Next() {
		var t Trait
		if err := rows.Scan(&t.Category, &t.Name, &t.Value, &t.Confidence,
			&t.FirstObserved, &t.LastUpdated, &t.Notes); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan trait: %w", err)
		}
		p.Traits[t.Category] = append(p.Traits[t.Category], t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate traits: %w", err)
	}

	rows, err = s.db.Query(`
		SELECT category, preference_name, preference_value, COALESCE(reasoning, ''),
		       confidence, first_noted, last_confirmed
		FROM personal_preferences
		ORDER BY confidence DESC, last_confirmed DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query preferences: %w", err)
	}
	for rows.Next() {
		var pref Preference
		if err := rows.Scan(&pref.Category, &pref.Name, &pref.Value, &pref.Reasoning,
			&pref.Confidence, &pref.FirstNoted, &pref.LastConfirmed); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan preference: %w", err)
		}
		p.Preferences[pref.Category] = append(p.Preferences[pref.Category], pref)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate preferences: %w", err)
	}

	rows, err = s.db.Query(`
		SELECT context_type, context_key, context_value, importance, last_updated
		FROM relationship_context
		ORDER BY importance DESC, last_updated DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query context: %w", err)
	}
	for rows.Next() {
		var c ContextEntry
		if err := rows.Scan(&c.Type, &c.Key, &c.Value, &c.Importance, &c.LastUpdated); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan context: %w", err)
		}
		p.Context[c.Type] = append(p.Context[c.Type], c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate context: %w", err)
	}

	return p, nil
}

// RecentInsights returns up to limit insights, newest first.
func (s *Store) RecentInsights(limit int) ([]Insight, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(`
		SELECT session_date, insight_type, insight, COALESCE(context, ''), confidence, timestamp
		FROM conversation_insights
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query insights: %w", err)
	}
	defer rows.Close()

	var insights []Insight
	for rows.Next() {
		var in Insight
		if err := rows.Scan(&in.SessionDate, &in.Type, &in.Text, &in.Context,
			&in.Confidence, &in.Timestamp); err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		insights = append(insights, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate insights: %w", err)
	}
	return insights, nil
}

// SessionSummaries returns the full session roll-up history, newest
// first.
func (s *Store) SessionSummaries() ([]SessionSummary, error) {
	rows, err := s.db.Query(`
		SELECT session_id, timestamp, COALESCE(conversation_topic, ''),
		       COALESCE(key_insights, ''), COALESCE(mood, ''),
		       COALESCE(conversation_quality, ''), learned_something_new
		FROM conversation_history
		ORDER BY timestamp DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query session history: %w", err)
	}
	defer rows.Close()

	var sums []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		if err := rows.Scan(&sum.SessionID, &sum.Timestamp, &sum.Topic,
			&sum.KeyInsights, &sum.Mood, &sum.Quality, &sum.LearnedSomethingNew); err != nil {
			return nil, fmt.Errorf("scan session summary: %w", err)
		}
		sums = append(sums, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session history: %w", err)
	}
	return sums, nil
}

// nullable maps "" to NULL so optional text columns stay NULL-clean.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
